package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// The catalog service speaks protobuf well-known types only, so clients need
// no generated stubs: products travel as google.protobuf.Struct with the same
// field names as the REST API.
const ServiceName = "catalog.v1.CatalogService"

const (
	ListProductsMethod  = "/" + ServiceName + "/ListProducts"
	GetProductMethod    = "/" + ServiceName + "/GetProduct"
	CreateProductMethod = "/" + ServiceName + "/CreateProduct"
	DeleteProductMethod = "/" + ServiceName + "/DeleteProduct"
)

type CatalogServiceServer interface {
	ListProducts(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteProduct(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

func unaryMethod[Req proto.Message](name string, newReq func() Req, call func(CatalogServiceServer, context.Context, Req) (any, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CatalogServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(CatalogServiceServer), ctx, req.(Req))
			})
		},
	}
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("ListProducts", newStruct, func(s CatalogServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.ListProducts(ctx, in)
		}),
		unaryMethod("GetProduct", newStruct, func(s CatalogServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.GetProduct(ctx, in)
		}),
		unaryMethod("CreateProduct", newStruct, func(s CatalogServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.CreateProduct(ctx, in)
		}),
		unaryMethod("DeleteProduct", newStruct, func(s CatalogServiceServer, ctx context.Context, in *structpb.Struct) (any, error) {
			return s.DeleteProduct(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "catalog/v1/catalog.proto",
}

func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

// CatalogClient calls CatalogService over any client connection.
type CatalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

func (c *CatalogClient) ListProducts(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListProductsMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) GetProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetProductMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) CreateProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CreateProductMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) DeleteProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DeleteProductMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
