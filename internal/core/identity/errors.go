package identity

import "errors"

// ErrInvalidKeyMaterial 密钥材料非法（长度错误、文件损坏）
var ErrInvalidKeyMaterial = errors.New("invalid identity key material")
