package layout

// NonFuelProductCode is the card network's sentinel for non-fuel line items
// (fees, adjustments). Rows carrying it are dropped before validation.
const NonFuelProductCode = "8010"

// detailFuelProfile is the per-fueling detail export: one row per pump
// transaction, tax-inclusive and tax-exclusive amounts side by side,
// station address columns, and a slip number with a branch suffix.
var detailFuelProfile = Profile{
	Tag:   DetailFuel,
	Label: "fueling detail",
	Keywords: []string{
		"フォーマット区分",
		"利用年月日",
		"車両番号",
		"カードコード",
		"商品名称",
	},
	Required: []string{"利用年月日"},
	Parse:    parseDetailFuel,
}

func parseDetailFuel(row RawRow) (*Transaction, error) {
	productCode := row.Get("商品コード")
	if productCode == NonFuelProductCode {
		return nil, ErrNonFuelProduct
	}

	date, ok := ParseDate(row.Get("利用年月日"))
	if !ok {
		return nil, missingField("利用年月日")
	}

	total, ok := ParseDecimal(row.GetAny("金額（税込）", "金額"))
	if !ok {
		return nil, missingField("金額")
	}

	card := row.Get("カードコード")

	tx := &Transaction{
		Layout:        DetailFuel,
		Date:          date,
		VehicleNumber: row.Get("車両番号"),
		CardNumber:    card,
		MaskedCard:    MaskCard(card),
		StationCode:   row.GetAny("給油ＳＳコード", "給油所コード"),
		StationName:   row.GetAny("給油所名称", "給油所名"),
		Prefecture:    row.Get("給油所都道府県名"),
		City:          row.Get("給油所市区町村名"),
		ProductCode:   productCode,
		ProductName:   row.GetAny("商品名称", "商品名"),

		Quantity:           optionalDecimal(row.Get("数量")),
		UnitPrice:          optionalDecimal(row.GetAny("単価（税込）", "単価")),
		UnitPriceBeforeTax: optionalDecimal(row.Get("単価（税抜）")),
		AmountBeforeTax:    optionalDecimal(row.Get("金額（税抜）")),
		TotalAmount:        total,

		SlipNumber:   row.Get("伝票番号"),
		BranchNumber: row.Get("伝票番号枝番"),
		RowNumber:    row.Number,
		RawData:      row.Snapshot(),
	}

	if clock, ok := ParseClock(row.Get("給油時刻")); ok {
		tx.Time = &clock
	}
	if tx.AmountBeforeTax != nil {
		tax := total.Sub(*tx.AmountBeforeTax)
		tx.TaxAmount = &tax
	}

	return tx, nil
}
