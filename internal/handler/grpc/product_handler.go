package grpc

import (
	"context"
	"errors"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/repository"
	"muebles-catalog/internal/service"
	"muebles-catalog/internal/utils"

	"go.opentelemetry.io/otel"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

type ProductGRPCHandler struct {
	Service *service.ProductService
}

var GrpcProductHandlerTracer = otel.Tracer("GrpcProductHandler")

var _ CatalogServiceServer = (*ProductGRPCHandler)(nil)

func NewProductGRPCHandler(svc *service.ProductService) *ProductGRPCHandler {
	return &ProductGRPCHandler{
		Service: svc,
	}
}

func (h *ProductGRPCHandler) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.ListProducts")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.ListProducts")

	products, err := h.Service.List(ctx, filterFromStruct(req))
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	items, err := toList(products)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"resolver": structpb.NewStringValue(utils.GetHost()),
		"items":    structpb.NewListValue(items),
	}}, nil
}

func (h *ProductGRPCHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.GetProduct")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.GetProduct")

	product, err := h.Service.Get(ctx, idFromStruct(req))
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	out, err := toStruct(product)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return out, nil
}

func (h *ProductGRPCHandler) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.CreateProduct")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.CreateProduct")

	in, err := inputFromStruct(req)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid product payload: %v", err)
	}
	created, err := h.Service.Create(ctx, in)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	out, err := toStruct(created)
	if err != nil {
		return nil, toStatus(ctx, err)
	}
	return out, nil
}

func (h *ProductGRPCHandler) DeleteProduct(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	ctx, span := GrpcProductHandlerTracer.Start(ctx, "GrpcProductHandler.DeleteProduct")
	defer span.End()
	logger.Info(ctx, "GrpcProductHandler.DeleteProduct")

	if err := h.Service.Delete(ctx, idFromStruct(req)); err != nil {
		return nil, toStatus(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func toStatus(ctx context.Context, err error) error {
	var (
		verr *service.ValidationError
		dup  *service.DuplicateError
		nf   *service.NotFoundError
	)
	switch {
	case errors.As(err, &verr):
		br := &errdetails.BadRequest{}
		for _, f := range verr.Fields {
			br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
				Field:       f.Field,
				Description: f.Message,
			})
		}
		st, detailErr := status.New(codes.InvalidArgument, verr.Error()).WithDetails(br)
		if detailErr != nil {
			return status.Error(codes.InvalidArgument, verr.Error())
		}
		return st.Err()
	case errors.As(err, &dup):
		return status.Error(codes.AlreadyExists, dup.Error())
	case errors.As(err, &nf):
		return status.Error(codes.NotFound, nf.Error())
	case errors.Is(err, repository.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		logger.Error(ctx, "Store unavailable", logger.Err(err))
		return status.Error(codes.Unavailable, "store unavailable")
	}
	logger.Error(ctx, "Request failed", logger.Err(err))
	return status.Error(codes.Internal, "internal error")
}
