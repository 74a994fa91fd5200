package web

import (
	"embed"
	"html/template"
	"net/url"
	"strconv"
)

//go:embed templates/*.html
var TemplatesFS embed.FS

// Templates 解析全部页面模板
func Templates() (*template.Template, error) {
	return template.New("").Funcs(FuncMap()).ParseFS(TemplatesFS, "templates/*.html")
}

// FuncMap 模板函数
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"pageURL":   PageURL,
		"exportURL": ExportURL,
		"eqID":      EqID,
	}
}

// PageURL 保留筛选条件的分页链接
func PageURL(query url.Values, page int) string {
	v := url.Values{}
	for k, vals := range query {
		v[k] = append([]string(nil), vals...)
	}
	v.Set("page", strconv.Itoa(page))
	return "/?" + v.Encode()
}

// ExportURL 按当前筛选条件导出
func ExportURL(query url.Values, format string) string {
	v := url.Values{}
	for k, vals := range query {
		v[k] = append([]string(nil), vals...)
	}
	v.Set("format", format)
	return "/api/v1/transactions/export?" + v.Encode()
}

// EqID 表单回显时判断下拉项是否选中
func EqID(id uint, raw string) bool {
	return raw != "" && raw == strconv.FormatUint(uint64(id), 10)
}
