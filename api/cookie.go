package api

import (
	"net/http"

	"cashflow/config"

	"github.com/gin-gonic/gin"
)

const flashCookie = "cashflow_flash"

// getCookieOptions 根据运行模式返回 Cookie 的安全选项
// release 模式下启用 Secure（仅 HTTPS 传输）
func getCookieOptions() (secure bool, sameSite http.SameSite) {
	if config.GlobalConfig != nil && config.GlobalConfig.IsRelease() {
		secure = true
	}
	sameSite = http.SameSiteLaxMode
	return
}

// setFlash 写入一次性提示，下一个页面读取后清除
func setFlash(c *gin.Context, message string) {
	secure, sameSite := getCookieOptions()
	c.SetSameSite(sameSite)
	c.SetCookie(flashCookie, message, 60, "/", "", secure, true)
}

// popFlash 读取并清除一次性提示
func popFlash(c *gin.Context) string {
	message, err := c.Cookie(flashCookie)
	if err != nil || message == "" {
		return ""
	}
	secure, sameSite := getCookieOptions()
	c.SetSameSite(sameSite)
	c.SetCookie(flashCookie, "", -1, "/", "", secure, true)
	return message
}
