package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"cashflow/service"

	"github.com/gin-gonic/gin"
)

// Export 导出筛选后的流水与汇总
// @Summary 导出流水
// @Description 按筛选条件导出 CSV / XLSX / PDF，文件末尾附收支汇总
// @Tags 流水
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce application/pdf
// @Param format query string false "csv（默认）/ xlsx / pdf"
// @Param date_from query string false "开始日期 (2006-01-02)"
// @Param date_to query string false "结束日期 (2006-01-02)"
// @Param status query int false "状态ID"
// @Param transaction_type query int false "流水类型ID"
// @Param category query int false "分类ID"
// @Success 200 {file} file "导出文件"
// @Failure 400 {object} Response{data=RejectDetail} "参数错误"
// @Router /api/v1/transactions/export [get]
func (h *TransactionHandler) Export(c *gin.Context) {
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		respondError(c, h.log, err, "导出失败")
		return
	}
	crit, ok := h.criteria(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	list, err := h.txs.List(ctx, crit)
	if err != nil {
		respondError(c, h.log, err, "查询数据失败")
		return
	}
	sum, err := h.txs.Stats(ctx, crit)
	if err != nil {
		respondError(c, h.log, err, "统计失败")
		return
	}

	buf := new(bytes.Buffer)
	if err := h.exporter.Write(buf, format, service.NewTransactionViews(list), sum); err != nil {
		respondError(c, h.log, err, "生成导出文件失败")
		return
	}

	filename := fmt.Sprintf("transactions_%s.%s", time.Now().Format("20060102_150405"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}
