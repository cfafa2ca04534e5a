package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName 流通服务全名
const ServiceName = "library.circulation.v1.Circulation"

// CirculationServer 流通服务
// 请求与响应都是google.protobuf.Struct，字段名与HTTP接口的JSON一致
type CirculationServer interface {
	StatusOf(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateLoan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelLoan(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterReturn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateReservation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CancelReservation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExpireReservations(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(CirculationServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(CirculationServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(s, ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc 流通服务描述
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CirculationServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("StatusOf", CirculationServer.StatusOf),
		methodDesc("CreateLoan", CirculationServer.CreateLoan),
		methodDesc("CancelLoan", CirculationServer.CancelLoan),
		methodDesc("RegisterReturn", CirculationServer.RegisterReturn),
		methodDesc("CreateReservation", CirculationServer.CreateReservation),
		methodDesc("CancelReservation", CirculationServer.CancelReservation),
		methodDesc("ExpireReservations", CirculationServer.ExpireReservations),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "library/circulation/v1/circulation.proto",
}

// RegisterCirculationServer 注册流通服务
func RegisterCirculationServer(s grpc.ServiceRegistrar, srv CirculationServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod 方法全名（客户端Invoke使用）
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}
