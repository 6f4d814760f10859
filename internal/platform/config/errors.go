package config

import "errors"

// 呼び出し側が errors.Is で判定するための設定エラーです。
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)
