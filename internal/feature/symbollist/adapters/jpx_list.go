package adapters

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"

	"stock_sync/internal/feature/symbollist/domain/entity"
)

// ErrUnknownLayout は上場銘柄一覧にコード列または銘柄名列が見つからない場合に返されます。
var ErrUnknownLayout = errors.New("jpx list: code or name column not found")

// 列名の候補。JPXの一覧 (data_j.xls) をCSVで保存したものと、英語版の見出しに対応する
var (
	codeHeaders   = []string{"コード", "銘柄コード", "証券コード", "Code", "Local Code"}
	nameHeaders   = []string{"銘柄名", "会社名", "企業名", "Name", "Name (English)"}
	marketHeaders = []string{"市場・商品区分", "市場区分", "上場区分", "Market", "Section/Products"}
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseJPXList はJPXの上場銘柄一覧をCSVとして読み込みます。
// UTF-8でない入力はShift_JISとしてデコードします。コードの正規化と検証は行わず、行の内容をそのまま返します。
func ParseJPXList(r io.Reader) ([]entity.Symbol, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read jpx list: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		if data, err = japanese.ShiftJIS.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("decode shift_jis: %w", err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read jpx list header: %w", err)
	}
	codeCol := column(header, codeHeaders)
	nameCol := column(header, nameHeaders)
	marketCol := column(header, marketHeaders)
	if codeCol < 0 || nameCol < 0 {
		return nil, ErrUnknownLayout
	}

	var out []entity.Symbol
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("jpx list line %d: %w", line, err)
		}
		if codeCol >= len(rec) || nameCol >= len(rec) {
			continue
		}
		s := entity.Symbol{
			Code:     rec[codeCol],
			Name:     rec[nameCol],
			IsActive: true,
		}
		if marketCol >= 0 && marketCol < len(rec) {
			s.Market = rec[marketCol]
		}
		out = append(out, s)
	}
	return out, nil
}

// column は候補のうち最初に見つかった見出しの位置を返します。見つからなければ -1 です。
func column(header, candidates []string) int {
	for _, c := range candidates {
		for i, h := range header {
			if strings.TrimSpace(h) == c {
				return i
			}
		}
	}
	return -1
}
