package layout

// billingV1Profile is the first invoice-style export: one row per voucher
// line, identified by vehicle number, with the amount in a single
// tax-inclusive 商品代 column. Quantity and unit price are mandatory here;
// the vendor never omits them for real fueling lines, so their absence
// means the row is not a transaction.
var billingV1Profile = Profile{
	Tag:   BillingV1,
	Label: "billing invoice v1",
	Keywords: []string{
		"取引年月日",
		"車番",
		"商品代",
		"給油先ＳＳコード",
	},
	Required: []string{"取引年月日", "車番", "数量", "単価"},
	Parse:    parseBillingV1,
}

func parseBillingV1(row RawRow) (*Transaction, error) {
	productCode := row.Get("商品コード")
	if productCode == NonFuelProductCode {
		return nil, ErrNonFuelProduct
	}

	date, ok := ParseDate(row.Get("取引年月日"))
	if !ok {
		return nil, missingField("取引年月日")
	}

	vehicle := row.Get("車番")
	if vehicle == "" {
		return nil, missingField("車番")
	}

	quantity, ok := ParseDecimal(row.Get("数量"))
	if !ok {
		return nil, missingField("数量")
	}
	unitPrice, ok := ParseDecimal(row.Get("単価"))
	if !ok {
		return nil, missingField("単価")
	}
	total, ok := ParseDecimal(row.Get("商品代"))
	if !ok {
		return nil, missingField("商品代")
	}

	tx := &Transaction{
		Layout:        BillingV1,
		Date:          date,
		VehicleNumber: vehicle,
		StationCode:   row.Get("給油先ＳＳコード"),
		StationName:   row.Get("給油所名"),
		ProductCode:   productCode,
		ProductName:   row.Get("商品名"),

		Quantity:    &quantity,
		UnitPrice:   &unitPrice,
		TotalAmount: total,

		SlipNumber:   row.Get("伝票番号"),
		BranchNumber: row.Get("行番号"),
		RowNumber:    row.Number,
		RawData:      row.Snapshot(),
	}

	// Some exports label the tax column 参考消費税, others plain 消費税.
	// Without a tax figure the before-tax amount is the total itself.
	if tax, ok := ParseDecimal(row.GetAny("参考消費税", "消費税")); ok {
		tx.TaxAmount = &tax
		before := total.Sub(tax)
		tx.AmountBeforeTax = &before
	} else {
		tx.AmountBeforeTax = &total
	}

	return tx, nil
}
