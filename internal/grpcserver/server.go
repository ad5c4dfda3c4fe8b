package grpcserver

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/pkg/grpc/cartrpc"
	"storefront/pkg/models"
)

type CartReader interface {
	View(ctx context.Context, sessionID string) (cart.Result, error)
	Reconcile(ctx context.Context, lines []models.CartLine, choice string) cart.Result
}

type ProductLister interface {
	List(ctx context.Context) ([]models.Product, error)
}

type Server struct {
	Carts    CartReader
	Products ProductLister
	Logger   *zap.Logger
}

var _ cartrpc.CartServiceServer = (*Server)(nil)

func NewServer(carts CartReader, products ProductLister, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{Carts: carts, Products: products, Logger: logger}
}

// Register builds a grpc.Server with request logging and mounts s on it.
func (s *Server) Register(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(s.logCalls)}, opts...)
	gs := grpc.NewServer(opts...)
	cartrpc.RegisterCartServiceServer(gs, s)
	return gs
}

func (s *Server) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		s.Logger.Warn("rpc failed", zap.String("method", info.FullMethod), zap.Error(err))
	} else {
		s.Logger.Debug("rpc", zap.String("method", info.FullMethod))
	}
	return resp, err
}

func (s *Server) Reconcile(ctx context.Context, req *cartrpc.ReconcileRequest) (*cartrpc.ReconcileResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	choice := strings.ToLower(strings.TrimSpace(req.DeliveryChoice))
	if choice != "" && choice != models.DeliveryInside && choice != models.DeliveryOutside {
		return nil, status.Error(codes.InvalidArgument, "delivery_choice must be inside or outside")
	}
	res := s.Carts.Reconcile(ctx, req.Lines, choice)
	return &cartrpc.ReconcileResponse{Cart: cartToRPC(res)}, nil
}

func (s *Server) GetCart(ctx context.Context, req *cartrpc.GetCartRequest) (*cartrpc.GetCartResponse, error) {
	id := strings.TrimSpace(req.GetSessionID())
	if id == "" {
		return nil, status.Error(codes.InvalidArgument, "session_id required")
	}
	res, err := s.Carts.View(ctx, id)
	if err != nil {
		s.Logger.Error("view cart", zap.String("session", id), zap.Error(err))
		return nil, status.Error(codes.Internal, "cart unavailable")
	}
	return &cartrpc.GetCartResponse{SessionID: id, Cart: cartToRPC(res)}, nil
}

func (s *Server) ListProducts(ctx context.Context, req *cartrpc.ListProductsRequest) (*cartrpc.ListProductsResponse, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request required")
	}
	if req.Limit < 0 || req.Offset < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit and offset must be >= 0")
	}
	products, err := s.Products.List(ctx)
	if err != nil {
		s.Logger.Error("list products", zap.Error(err))
		return nil, status.Error(codes.Internal, "list failed")
	}

	q := catalog.ListQuery{
		Category: req.Category,
		Query:    req.Query,
		Limit:    int(req.Limit),
		Offset:   int(req.Offset),
	}
	items, total := q.Apply(products)
	return &cartrpc.ListProductsResponse{
		Total:  int32(total),
		Limit:  req.Limit,
		Offset: req.Offset,
		Items:  items,
	}, nil
}

func cartToRPC(r cart.Result) cartrpc.Cart {
	lines := r.Lines
	if lines == nil {
		lines = []models.CartLine{}
	}
	return cartrpc.Cart{
		Lines:               lines,
		ItemCount:           int32(r.ItemCount),
		Subtotal:            r.Subtotal,
		ShippingFee:         r.ShippingFee,
		Total:               r.Total,
		DeliveryType:        r.DeliveryType,
		DeliveryChoice:      r.DeliveryChoice,
		OutsideSelectable:   r.OutsideSelectable,
		FreeDelivery:        r.FreeDelivery.Free,
		FreeReason:          string(r.FreeDelivery.Reason),
		FreeProductID:       r.FreeDelivery.ProductID,
		HiddenPriceProducts: r.HiddenPriceProducts,
		Dirty:               r.Dirty,
		Warnings:            r.Warnings,
	}
}
