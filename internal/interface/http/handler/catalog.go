package handler

import (
	"github.com/gin-gonic/gin"

	appcopy "github.com/xiebiao/library/internal/application/copy"
	apptitle "github.com/xiebiao/library/internal/application/title"
	"github.com/xiebiao/library/internal/interface/http/dto"
	"github.com/xiebiao/library/pkg/response"
)

// CatalogHandler 书目与副本
type CatalogHandler struct {
	titles     *apptitle.UseCase
	registerUC *appcopy.RegisterCopyUseCase
	statusUC   *appcopy.StatusOfUseCase
	deleteUC   *appcopy.DeleteCopyUseCase
}

// NewCatalogHandler 创建书目与副本处理器
func NewCatalogHandler(
	titles *apptitle.UseCase,
	registerUC *appcopy.RegisterCopyUseCase,
	statusUC *appcopy.StatusOfUseCase,
	deleteUC *appcopy.DeleteCopyUseCase,
) *CatalogHandler {
	return &CatalogHandler{
		titles:     titles,
		registerUC: registerUC,
		statusUC:   statusUC,
		deleteUC:   deleteUC,
	}
}

// RegisterTitle 登记书目
// @Summary      登记书目
// @Tags         书目
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterTitleRequest true "书目信息"
// @Success      201 {object} response.Response{data=apptitle.TitleView}
// @Failure      400 {object} response.Response "参数错误"
// @Failure      403 {object} response.Response "无权限"
// @Router       /api/v1/titles [post]
func (h *CatalogHandler) RegisterTitle(c *gin.Context) {
	var req dto.RegisterTitleRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.titles.Register(c.Request.Context(), apptitle.RegisterRequest{
		Name:            req.Name,
		PublicationYear: req.PublicationYear,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetTitle 查询书目
// @Summary      查询书目
// @Tags         书目
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "书目ID"
// @Success      200 {object} response.Response{data=apptitle.TitleView}
// @Failure      404 {object} response.Response "书目不存在"
// @Router       /api/v1/titles/{id} [get]
func (h *CatalogHandler) GetTitle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.titles.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DelistTitle 下架书目
// @Summary      下架书目
// @Description  书目置为下架，全部副本强制报废，有效预约取消；重复下架是幂等的
// @Tags         书目
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "书目ID"
// @Success      200 {object} response.Response{data=apptitle.DelistResponse}
// @Failure      404 {object} response.Response "书目不存在"
// @Router       /api/v1/titles/{id}/delist [post]
func (h *CatalogHandler) DelistTitle(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.titles.Delist(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ListTitleCopies 书目下的副本（含推导状态）
// @Summary      书目副本列表
// @Tags         书目
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "书目ID"
// @Success      200 {object} response.Response{data=[]appcopy.CopyView}
// @Failure      404 {object} response.Response "书目不存在"
// @Router       /api/v1/titles/{id}/copies [get]
func (h *CatalogHandler) ListTitleCopies(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.statusUC.ListByTitle(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// RegisterCopy 登记副本
// @Summary      登记副本
// @Description  已下架书目只能登记为discarded
// @Tags         副本
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.RegisterCopyRequest true "副本信息"
// @Success      201 {object} response.Response{data=appcopy.CopyView}
// @Failure      404 {object} response.Response "书目不存在"
// @Failure      409 {object} response.Response "外部编码重复"
// @Failure      412 {object} response.Response "书目已下架"
// @Router       /api/v1/copies [post]
func (h *CatalogHandler) RegisterCopy(c *gin.Context) {
	var req dto.RegisterCopyRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.registerUC.Execute(c.Request.Context(), appcopy.RegisterCopyRequest{
		TitleID:      req.TitleID,
		ExternalCode: req.ExternalCode,
		Disposition:  req.Disposition,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetCopy 查询副本
// @Summary      查询副本
// @Tags         副本
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "副本ID"
// @Success      200 {object} response.Response{data=appcopy.CopyView}
// @Failure      404 {object} response.Response "副本不存在"
// @Router       /api/v1/copies/{id} [get]
func (h *CatalogHandler) GetCopy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.statusUC.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CopyStatus 副本流通状态
// @Summary      副本流通状态
// @Description  available / on_loan / reserved / discarded，由借阅与预约推导
// @Tags         副本
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "副本ID"
// @Param        as_of query string false "日期（YYYY-MM-DD），默认今天"
// @Success      200 {object} response.Response{data=appcopy.StatusView}
// @Failure      404 {object} response.Response "副本不存在"
// @Router       /api/v1/copies/{id}/status [get]
func (h *CatalogHandler) CopyStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	asOf, err := dto.ParseDate("as_of", c.Query("as_of"))
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.statusUC.Execute(c.Request.Context(), id, asOf)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteCopy 删除副本
// @Summary      删除副本
// @Description  借出中或被预约占用的副本不能删除
// @Tags         副本
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "副本ID"
// @Success      200 {object} response.Response
// @Failure      404 {object} response.Response "副本不存在"
// @Failure      409 {object} response.Response "副本借出中或被预约"
// @Router       /api/v1/copies/{id} [delete]
func (h *CatalogHandler) DeleteCopy(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.deleteUC.Execute(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}
