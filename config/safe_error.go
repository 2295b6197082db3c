package config

// SafeErrorMessage 根据运行模式返回对外安全的错误信息。
// release 模式下只返回 fallback，避免把数据库等内部错误细节暴露给客户端；
// debug 模式（或配置未初始化的开发场景）返回原始错误便于排查。
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}
