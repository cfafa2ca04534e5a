package handler

import (
	"github.com/gin-gonic/gin"

	appreport "github.com/xiebiao/library/internal/application/report"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/pkg/response"
)

// ReportHandler 统计报表
type ReportHandler struct {
	reports *appreport.UseCase
}

// NewReportHandler 创建报表处理器
func NewReportHandler(reports *appreport.UseCase) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Overdue 逾期借阅
// @Summary      逾期借阅
// @Tags         报表
// @Produce      json
// @Security     BearerAuth
// @Param        as_of query string false "日期（YYYY-MM-DD），默认今天"
// @Param        limit query int false "最多返回条数" default(50)
// @Success      200 {object} response.Response{data=[]appreport.OverdueLoan}
// @Router       /api/v1/reports/overdue [get]
func (h *ReportHandler) Overdue(c *gin.Context) {
	asOf, err := dto.ParseDate("as_of", c.Query("as_of"))
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	result, err := h.reports.Overdue(c.Request.Context(), asOf, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Summary 流通概况
// @Summary      流通概况
// @Tags         报表
// @Produce      json
// @Security     BearerAuth
// @Param        as_of query string false "日期（YYYY-MM-DD），默认今天"
// @Success      200 {object} response.Response{data=appreport.Summary}
// @Router       /api/v1/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	asOf, err := dto.ParseDate("as_of", c.Query("as_of"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.reports.Summary(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
