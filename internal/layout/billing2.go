package layout

// billingV2Profile is the second invoice-style export: card-keyed rows
// with a charge number per line and a category column where a negative
// code marks a reversal or cancellation. Reversals are never persisted;
// they would double-count against the original transaction.
var billingV2Profile = Profile{
	Tag:   BillingV2,
	Label: "billing invoice v2",
	Keywords: []string{
		"顧客コード",
		"ベースコード",
		"カード番号",
		"利用日",
		"チャージ番号",
	},
	Required: []string{"利用日"},
	Parse:    parseBillingV2,
}

func parseBillingV2(row RawRow) (*Transaction, error) {
	productCode := row.Get("商品コード")
	if productCode == NonFuelProductCode {
		return nil, ErrNonFuelProduct
	}
	if category, ok := ParseInt(row.Get("区分")); ok && category < 0 {
		return nil, ErrReversalRow
	}

	date, ok := ParseDate(row.Get("利用日"))
	if !ok {
		return nil, missingField("利用日")
	}

	total, ok := ParseDecimal(row.Get("金額"))
	if !ok {
		return nil, missingField("金額")
	}

	card := row.Get("カード番号")

	tx := &Transaction{
		Layout:      BillingV2,
		Date:        date,
		CardNumber:  card,
		MaskedCard:  MaskCard(card),
		StationCode: row.Get("給油所コード"),
		StationName: row.Get("給油所名"),
		ProductCode: productCode,
		ProductName: row.Get("商品名"),

		Quantity:    optionalDecimal(row.Get("数量")),
		UnitPrice:   optionalDecimal(row.Get("単価")),
		TotalAmount: total,

		// This layout has no voucher; the charge number plus product code
		// plays the slip/line role in the natural key.
		SlipNumber:   row.Get("チャージ番号"),
		BranchNumber: productCode,
		RowNumber:    row.Number,
		RawData:      row.Snapshot(),
	}

	return tx, nil
}
