// Package grpc 流通服务的gRPC接口
// 消息使用google.protobuf.Struct，字段与HTTP接口的JSON一致
package grpc

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/types/known/structpb"

	appcopy "github.com/xiebiao/library/internal/application/copy"
	apploan "github.com/xiebiao/library/internal/application/loan"
	appreservation "github.com/xiebiao/library/internal/application/reservation"
	appreturns "github.com/xiebiao/library/internal/application/returns"
	"github.com/xiebiao/library/internal/domain/member"
	"github.com/xiebiao/library/internal/interface/http/dto"
	apperrors "github.com/xiebiao/library/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UseCases gRPC服务依赖的用例
type UseCases struct {
	StatusOf           *appcopy.StatusOfUseCase
	CreateLoan         *apploan.CreateLoanUseCase
	CancelLoan         *apploan.CancelLoanUseCase
	RegisterReturn     *appreturns.RegisterReturnUseCase
	CreateReservation  *appreservation.CreateReservationUseCase
	CancelReservation  *appreservation.CancelReservationUseCase
	ExpireReservations *appreservation.ExpireReservationsUseCase
	Reservations       *appreservation.QueryUseCase
}

// Server 流通服务实现
type Server struct {
	uc UseCases
}

// NewCirculationServer 创建流通服务
func NewCirculationServer(uc UseCases) *Server {
	return &Server{uc: uc}
}

var _ CirculationServer = (*Server)(nil)

type statusRequest struct {
	CopyID uint   `json:"copy_id"`
	AsOf   string `json:"as_of"`
}

type idRequest struct {
	ID uint `json:"id"`
}

// StatusOf 副本状态
func (s *Server) StatusOf(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req statusRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	if req.CopyID == 0 {
		return nil, toStatus(apperrors.ErrInvalidParams.WithDetail("copy_id必填"))
	}
	asOf, err := dto.ParseDate("as_of", req.AsOf)
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := s.uc.StatusOf.Execute(ctx, req.CopyID, asOf)
	return reply(result, err)
}

// CreateLoan 借出
func (s *Server) CreateLoan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req dto.CreateLoanRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	if req.CopyID == 0 || req.PatronID == 0 || req.DueDate == "" {
		return nil, toStatus(apperrors.ErrInvalidParams.WithDetail("copy_id、patron_id和due_date必填"))
	}
	checkout, err := dto.ParseDate("checkout_date", req.CheckoutDate)
	if err != nil {
		return nil, toStatus(err)
	}
	due, err := dto.ParseDate("due_date", req.DueDate)
	if err != nil {
		return nil, toStatus(err)
	}

	actor, _ := member.FromContext(ctx)
	result, err := s.uc.CreateLoan.Execute(ctx, apploan.CreateLoanRequest{
		CopyID:       req.CopyID,
		PatronID:     req.PatronID,
		OperatorID:   actor.ID,
		CheckoutDate: checkout,
		DueDate:      due,
	})
	return reply(result, err)
}

// CancelLoan 取消借阅
func (s *Server) CancelLoan(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := decodeID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := s.uc.CancelLoan.Execute(ctx, id)
	return reply(result, err)
}

// RegisterReturn 归还
func (s *Server) RegisterReturn(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req dto.RegisterReturnRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	if req.LoanID == 0 {
		return nil, toStatus(apperrors.ErrInvalidParams.WithDetail("loan_id必填"))
	}
	returned, err := dto.ParseDate("return_date", req.ReturnDate)
	if err != nil {
		return nil, toStatus(err)
	}

	actor, _ := member.FromContext(ctx)
	result, err := s.uc.RegisterReturn.Execute(ctx, appreturns.RegisterReturnRequest{
		LoanID:     req.LoanID,
		OperatorID: actor.ID,
		ReturnDate: returned,
	})
	return reply(result, err)
}

// CreateReservation 预约
// 读者只能为自己预约，馆员代办时必须给出patron_id
func (s *Server) CreateReservation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req dto.CreateReservationRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	if req.CopyID == 0 && req.TitleID == 0 {
		return nil, toStatus(apperrors.ErrInvalidParams.WithDetail("copy_id与title_id至少填写一个"))
	}
	reservedOn, err := dto.ParseDate("reserved_on", req.ReservedOn)
	if err != nil {
		return nil, toStatus(err)
	}
	expiresOn, err := dto.ParseOptionalDate("expires_on", req.ExpiresOn)
	if err != nil {
		return nil, toStatus(err)
	}

	ucReq := appreservation.CreateReservationRequest{
		CopyID:     req.CopyID,
		TitleID:    req.TitleID,
		PatronID:   req.PatronID,
		ReservedOn: reservedOn,
		ExpiresOn:  expiresOn,
	}
	actor, _ := member.FromContext(ctx)
	if actor.IsPatron() {
		if req.PatronID != 0 && req.PatronID != actor.ID {
			return nil, toStatus(apperrors.ErrForbidden.WithDetail("只能为本人预约"))
		}
		ucReq.PatronID = actor.ID
	} else {
		if req.PatronID == 0 {
			return nil, toStatus(apperrors.ErrInvalidParams.WithDetail("patron_id必填"))
		}
		operatorID := actor.ID
		ucReq.OperatorID = &operatorID
	}

	result, err := s.uc.CreateReservation.Execute(ctx, ucReq)
	return reply(result, err)
}

// CancelReservation 取消预约，读者只能取消自己的
func (s *Server) CancelReservation(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	id, err := decodeID(in)
	if err != nil {
		return nil, toStatus(err)
	}
	if actor, _ := member.FromContext(ctx); actor.IsPatron() {
		current, err := s.uc.Reservations.Get(ctx, id)
		if err != nil {
			return nil, toStatus(err)
		}
		if !actor.Owns(current.PatronID) {
			return nil, toStatus(apperrors.ErrForbidden)
		}
	}
	result, err := s.uc.CancelReservation.Execute(ctx, id)
	return reply(result, err)
}

// ExpireReservations 预约过期清理
func (s *Server) ExpireReservations(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req dto.ExpireReservationsRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	asOf, err := dto.ParseDate("as_of", req.AsOf)
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := s.uc.ExpireReservations.Execute(ctx, asOf)
	return reply(result, err)
}

// decode Struct转请求结构体
func decode(in *structpb.Struct, v interface{}) error {
	raw, err := in.MarshalJSON()
	if err != nil {
		return apperrors.ErrInvalidParams.WithDetail("请求格式错误")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperrors.ErrInvalidParams.WithDetail("请求格式错误: %v", err)
	}
	return nil
}

func decodeID(in *structpb.Struct) (uint, error) {
	var req idRequest
	if err := decode(in, &req); err != nil {
		return 0, err
	}
	if req.ID == 0 {
		return 0, apperrors.ErrInvalidParams.WithDetail("id必填")
	}
	return req.ID, nil
}

// reply 用例结果转Struct
func reply(result interface{}, err error) (*structpb.Struct, error) {
	if err != nil {
		return nil, toStatus(err)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, toStatus(apperrors.Wrap(err, "响应序列化失败"))
	}
	out := &structpb.Struct{}
	if err := out.UnmarshalJSON(raw); err != nil {
		return nil, toStatus(apperrors.Wrap(err, "响应序列化失败"))
	}
	return out, nil
}
