package handler

import (
	"github.com/gin-gonic/gin"

	appreservation "github.com/xiebiao/library/internal/application/reservation"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/internal/interface/http/middleware"
	apperrors "github.com/xiebiao/library/pkg/errors"
	"github.com/xiebiao/library/pkg/response"
)

// ReservationHandler 预约
type ReservationHandler struct {
	createUC *appreservation.CreateReservationUseCase
	cancelUC *appreservation.CancelReservationUseCase
	expireUC *appreservation.ExpireReservationsUseCase
	query    *appreservation.QueryUseCase
}

// NewReservationHandler 创建预约处理器
func NewReservationHandler(
	createUC *appreservation.CreateReservationUseCase,
	cancelUC *appreservation.CancelReservationUseCase,
	expireUC *appreservation.ExpireReservationsUseCase,
	query *appreservation.QueryUseCase,
) *ReservationHandler {
	return &ReservationHandler{
		createUC: createUC,
		cancelUC: cancelUC,
		expireUC: expireUC,
		query:    query,
	}
}

// CreateReservation 预约
// @Summary      预约副本或书目
// @Description  指定copy_id预约副本；只给title_id时自动选择副本，没有可选副本则排队
// @Tags         预约
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateReservationRequest true "预约信息"
// @Success      201 {object} response.Response{data=appreservation.CreateReservationResponse}
// @Failure      404 {object} response.Response "副本/书目/读者不存在"
// @Failure      409 {object} response.Response "副本已有有效预约"
// @Failure      412 {object} response.Response "书目下架或读者停用"
// @Router       /api/v1/reservations [post]
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	var req dto.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.CopyID == 0 && req.TitleID == 0 {
		response.Error(c, apperrors.ErrInvalidParams.WithDetail("copy_id与title_id至少填写一个"))
		return
	}
	reservedOn, err := dto.ParseDate("reserved_on", req.ReservedOn)
	if err != nil {
		response.Error(c, err)
		return
	}
	expiresOn, err := dto.ParseOptionalDate("expires_on", req.ExpiresOn)
	if err != nil {
		response.Error(c, err)
		return
	}

	ucReq := appreservation.CreateReservationRequest{
		CopyID:     req.CopyID,
		TitleID:    req.TitleID,
		PatronID:   req.PatronID,
		ReservedOn: reservedOn,
		ExpiresOn:  expiresOn,
	}
	// 读者只能为自己预约；馆员代办时记录馆员
	actor := middleware.MustGetActor(c)
	if actor.IsPatron() {
		if req.PatronID != 0 && req.PatronID != actor.ID {
			response.Error(c, apperrors.ErrForbidden.WithDetail("只能为本人预约"))
			return
		}
		ucReq.PatronID = actor.ID
	} else {
		if req.PatronID == 0 {
			response.Error(c, apperrors.ErrInvalidParams.WithDetail("patron_id必填"))
			return
		}
		operatorID := actor.ID
		ucReq.OperatorID = &operatorID
	}

	result, err := h.createUC.Execute(c.Request.Context(), ucReq)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetReservation 查询预约
// @Summary      查询预约
// @Tags         预约
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "预约ID"
// @Success      200 {object} response.Response{data=appreservation.ReservationView}
// @Failure      403 {object} response.Response "不是本人的预约"
// @Failure      404 {object} response.Response "预约不存在"
// @Router       /api/v1/reservations/{id} [get]
func (h *ReservationHandler) GetReservation(c *gin.Context) {
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

// CancelReservation 取消预约
// @Summary      取消预约
// @Tags         预约
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "预约ID"
// @Success      200 {object} response.Response{data=appreservation.ReservationView}
// @Failure      404 {object} response.Response "预约不存在"
// @Failure      409 {object} response.Response "预约不可取消"
// @Router       /api/v1/reservations/{id}/cancel [post]
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if actor := middleware.MustGetActor(c); actor.IsPatron() {
		current, err := h.query.Get(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		if !requireOwner(c, current.PatronID) {
			return
		}
	}

	result, err := h.cancelUC.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteReservation 删除预约记录（仅限非有效状态）
// @Summary      删除预约记录
// @Tags         预约
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "预约ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "预约不存在"
// @Failure      409 {object} response.Response "预约仍然有效"
// @Router       /api/v1/reservations/{id} [delete]
func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
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

// ListPatronReservations 读者的预约
// @Summary      读者预约列表
// @Tags         预约
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "读者ID"
// @Param        page query int false "页码" default(1)
// @Param        page_size query int false "每页大小" default(20)
// @Success      200 {object} response.Response{data=appreservation.ListByPatronResponse}
// @Failure      403 {object} response.Response "不是本人"
// @Router       /api/v1/patrons/{id}/reservations [get]
func (h *ReservationHandler) ListPatronReservations(c *gin.Context) {
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

	result, err := h.query.ListByPatron(c.Request.Context(), appreservation.ListByPatronRequest{
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

// ExpireReservations 手动触发预约过期清理
// @Summary      预约过期清理
// @Description  有效期早于as_of的有效预约置为expired；相同as_of重复执行结果不变
// @Tags         预约
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.ExpireReservationsRequest false "清理日期"
// @Success      200 {object} response.Response{data=appreservation.ExpireReservationsResponse}
// @Router       /api/v1/reservations/expire [post]
func (h *ReservationHandler) ExpireReservations(c *gin.Context) {
	var req dto.ExpireReservationsRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	asOf, err := dto.ParseDate("as_of", req.AsOf)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.expireUC.Execute(c.Request.Context(), asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}
