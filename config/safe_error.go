package config

// SafeErrorMessage 生产环境（release）下只返回 fallback，避免把内部错误细节暴露给客户端
func SafeErrorMessage(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	if GlobalConfig != nil && GlobalConfig.Server.Mode == "release" {
		return fallback
	}
	return err.Error()
}
