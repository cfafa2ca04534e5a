package handler

import (
	"github.com/gin-gonic/gin"

	apploan "github.com/xiebiao/library/internal/application/loan"
	appreturns "github.com/xiebiao/library/internal/application/returns"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	"github.com/xiebiao/library/pkg/response"
)

// LoanHandler 借阅与归还
type LoanHandler struct {
	createUC *apploan.CreateLoanUseCase
	cancelUC *apploan.CancelLoanUseCase
	query    *apploan.QueryUseCase
	returnUC *appreturns.RegisterReturnUseCase
}

// NewLoanHandler 创建借阅处理器
func NewLoanHandler(
	createUC *apploan.CreateLoanUseCase,
	cancelUC *apploan.CancelLoanUseCase,
	query *apploan.QueryUseCase,
	returnUC *appreturns.RegisterReturnUseCase,
) *LoanHandler {
	return &LoanHandler{
		createUC: createUC,
		cancelUC: cancelUC,
		query:    query,
		returnUC: returnUC,
	}
}

// CreateLoan 借出
// @Summary      借出副本
// @Description  副本可借，或正为该读者保留（对应预约同时转为fulfilled）
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateLoanRequest true "借出信息"
// @Success      201 {object} response.Response{data=apploan.CreateLoanResponse}
// @Failure      404 {object} response.Response "副本/读者/馆员不存在"
// @Failure      409 {object} response.Response "副本不可借"
// @Failure      412 {object} response.Response "书目下架或读者/馆员停用"
// @Router       /api/v1/loans [post]
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	var req dto.CreateLoanRequest
	if !bindJSON(c, &req) {
		return
	}
	checkout, err := dto.ParseDate("checkout_date", req.CheckoutDate)
	if err != nil {
		response.Error(c, err)
		return
	}
	due, err := dto.ParseDate("due_date", req.DueDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.createUC.Execute(c.Request.Context(), apploan.CreateLoanRequest{
		CopyID:       req.CopyID,
		PatronID:     req.PatronID,
		OperatorID:   middleware.MustGetActor(c).ID,
		CheckoutDate: checkout,
		DueDate:      due,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetLoan 查询借阅
// @Summary      查询借阅
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=apploan.LoanView}
// @Failure      403 {object} response.Response "不是本人的借阅"
// @Failure      404 {object} response.Response "借阅不存在"
// @Router       /api/v1/loans/{id} [get]
func (h *LoanHandler) GetLoan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.query.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !requireOwner(c, result.PatronID) {
		return
	}
	response.Success(c, result)
}

// CancelLoan 取消借阅
// @Summary      取消借阅
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response{data=apploan.CancelLoanResponse}
// @Failure      404 {object} response.Response "借阅不存在"
// @Failure      409 {object} response.Response "借阅已归还或已取消"
// @Router       /api/v1/loans/{id}/cancel [post]
func (h *LoanHandler) CancelLoan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.cancelUC.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteLoan 删除借阅记录（仅限已归还或已取消）
// @Summary      删除借阅记录
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "借阅ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "借阅不存在"
// @Failure      409 {object} response.Response "借阅仍在进行中"
// @Router       /api/v1/loans/{id} [delete]
func (h *LoanHandler) DeleteLoan(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.query.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ListPatronLoans 读者的借阅
// @Summary      读者借阅列表
// @Tags         借阅
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "读者ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(20)
// @Success      200 {object} response.Response{data=apploan.ListByPatronResponse}
// @Failure      403 {object} response.Response "不是本人"
// @Router       /api/v1/patrons/{id}/loans [get]
func (h *LoanHandler) ListPatronLoans(c *gin.Context) {
	patronID, ok := pathID(c, "id")
	if !ok || !requireOwner(c, patronID) {
		return
	}
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	pageSize, ok := queryInt(c, "page_size")
	if !ok {
		return
	}

	result, err := h.query.ListByPatron(c.Request.Context(), apploan.ListByPatronRequest{
		PatronID: patronID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RegisterReturn 登记归还
// @Summary      登记归还
// @Description  归还后副本有排队预约时为reserved，否则为available；不会自动转借
// @Tags         借阅
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterReturnRequest true "归还信息"
// @Success      201 {object} response.Response{data=appreturns.RegisterReturnResponse}
// @Failure      404 {object} response.Response "借阅/馆员不存在"
// @Failure      409 {object} response.Response "借阅已归还或已取消"
// @Router       /api/v1/returns [post]
func (h *LoanHandler) RegisterReturn(c *gin.Context) {
	var req dto.RegisterReturnRequest
	if !bindJSON(c, &req) {
		return
	}
	returnDate, err := dto.ParseDate("return_date", req.ReturnDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.returnUC.Execute(c.Request.Context(), appreturns.RegisterReturnRequest{
		LoanID:     req.LoanID,
		OperatorID: middleware.MustGetActor(c).ID,
		ReturnDate: returnDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
