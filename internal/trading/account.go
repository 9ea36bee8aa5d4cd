package trading

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// AccountInfo 是 account_info 快照的类型化视图。终端按经纪商口径
// 填充字段，缺失的保持零值。
type AccountInfo struct {
	Name       string  `mapstructure:"name"`
	Number     int64   `mapstructure:"number"`
	Currency   string  `mapstructure:"currency"`
	Leverage   int     `mapstructure:"leverage"`
	Balance    float64 `mapstructure:"balance"`
	Equity     float64 `mapstructure:"equity"`
	Margin     float64 `mapstructure:"margin"`
	FreeMargin float64 `mapstructure:"free_margin"`
}

// DecodeAccountInfo converts the raw snapshot mapping into the typed
// view. Numbers arrive as json float64 or quoted strings depending on
// terminal build, so the decode is weakly typed.
func DecodeAccountInfo(raw map[string]any) (AccountInfo, error) {
	var info AccountInfo
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &info,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return AccountInfo{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return AccountInfo{}, fmt.Errorf("decoding account info failed: %w", err)
	}
	return info, nil
}
