package adminauth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"licai/config"

	"github.com/gin-gonic/gin"
)

// 后台 Cookie 的 HMAC 签名，防止客户端伪造 admin_user_id。
// 签名密钥复用 JWT secret，未配置时退回内置默认值（仅开发环境会走到）。

const defaultCookieSecret = "licai-cookie-secret"

func cookieSecret() []byte {
	if config.GlobalConfig != nil && config.GlobalConfig.JWT.Secret != "" {
		return []byte(config.GlobalConfig.JWT.Secret)
	}
	return []byte(defaultCookieSecret)
}

// SignCookieValue 对值签名，格式为 value.hex(hmac-sha256)
func SignCookieValue(value string) string {
	mac := hmac.New(sha256.New, cookieSecret())
	mac.Write([]byte(value))
	return value + "." + hex.EncodeToString(mac.Sum(nil))
}

// VerifyCookieValue 校验签名并返回原始值
func VerifyCookieValue(signed string) (string, error) {
	if signed == "" {
		return "", errors.New("empty cookie value")
	}
	idx := strings.LastIndex(signed, ".")
	if idx <= 0 {
		return "", errors.New("invalid cookie format")
	}
	value, sig := signed[:idx], signed[idx+1:]

	mac := hmac.New(sha256.New, cookieSecret())
	mac.Write([]byte(value))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", errors.New("invalid cookie signature")
	}
	return value, nil
}

// GetVerifiedAdminUserID 验证 admin_user_id cookie 签名并返回用户 ID
func GetVerifiedAdminUserID(c *gin.Context) (uint, error) {
	signed, err := c.Cookie("admin_user_id")
	if err != nil {
		return 0, fmt.Errorf("读取 cookie 失败: %w", err)
	}
	value, err := VerifyCookieValue(signed)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid cookie value: %w", err)
	}
	return uint(id), nil
}
