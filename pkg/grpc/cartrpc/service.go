package cartrpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	ServiceName = "storefront.cart.v1.CartService"

	ReconcileMethod    = "/" + ServiceName + "/Reconcile"
	GetCartMethod      = "/" + ServiceName + "/GetCart"
	ListProductsMethod = "/" + ServiceName + "/ListProducts"
)

type CartServiceServer interface {
	Reconcile(context.Context, *ReconcileRequest) (*ReconcileResponse, error)
	GetCart(context.Context, *GetCartRequest) (*GetCartResponse, error)
	ListProducts(context.Context, *ListProductsRequest) (*ListProductsResponse, error)
}

func unary[Req, Resp any](name, full string, call func(CartServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CartServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CartServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Reconcile", ReconcileMethod, CartServiceServer.Reconcile),
		unary("GetCart", GetCartMethod, CartServiceServer.GetCart),
		unary("ListProducts", ListProductsMethod, CartServiceServer.ListProducts),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/cart/v1",
}

func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls CartService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *Client) Reconcile(ctx context.Context, in *ReconcileRequest, opts ...grpc.CallOption) (*ReconcileResponse, error) {
	out := new(ReconcileResponse)
	if err := c.invoke(ctx, ReconcileMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCart(ctx context.Context, in *GetCartRequest, opts ...grpc.CallOption) (*GetCartResponse, error) {
	out := new(GetCartResponse)
	if err := c.invoke(ctx, GetCartMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ListProducts(ctx context.Context, in *ListProductsRequest, opts ...grpc.CallOption) (*ListProductsResponse, error) {
	out := new(ListProductsResponse)
	if err := c.invoke(ctx, ListProductsMethod, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
