package grpcserver

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"storefront/internal/cart"
	"storefront/pkg/grpc/cartrpc"
	"storefront/pkg/models"
)

func testProducts() []models.Product {
	return []models.Product{
		{ID: "runner", Title: "Runner", Categories: []string{"shoes"}, Variants: []models.Variant{
			{ColorName: "Red", Sizes: []models.SizeStock{{Size: "M", Stock: 3}}},
		}},
		{ID: "cap", Title: "Cap", Categories: []string{"hats"}},
	}
}

type fixedLoader struct{}

func (fixedLoader) Load(context.Context) cart.Inputs {
	return cart.Inputs{
		Catalog:  cart.NewCatalog(testProducts()),
		Delivery: models.DefaultDeliveryConfig(),
		Rules:    models.DefaultCartRules(),
	}
}

type staticProducts struct {
	products []models.Product
	err      error
}

func (s staticProducts) List(context.Context) ([]models.Product, error) { return s.products, s.err }

func dial(t *testing.T, srv *Server) *cartrpc.Client {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := srv.Register()
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return cartrpc.NewClient(conn)
}

func line(qty int) models.CartLine {
	return models.CartLine{ID: "runner", Title: "Runner", Price: 10, Quantity: qty, Color: "Red", Size: "M", Stock: 10}
}

func TestReconcile(t *testing.T) {
	svc := cart.NewService(cart.NewMemoryStore(), fixedLoader{}, nil)
	client := dial(t, NewServer(svc, staticProducts{}, nil))

	resp, err := client.Reconcile(t.Context(), &cartrpc.ReconcileRequest{Lines: []models.CartLine{line(5)}})
	require.NoError(t, err)
	c := resp.Cart
	assert.True(t, c.Dirty)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.EqualValues(t, 3, c.ItemCount)
	assert.Equal(t, 30.0, c.Subtotal)
	assert.Equal(t, 10.0, c.ShippingFee)
	assert.Equal(t, 40.0, c.Total)
	assert.Equal(t, models.DeliveryInside, c.DeliveryChoice)

	resp, err = client.Reconcile(t.Context(), &cartrpc.ReconcileRequest{Lines: []models.CartLine{line(1)}, DeliveryChoice: "Outside"})
	require.NoError(t, err)
	assert.Equal(t, 25.0, resp.Cart.Total)

	_, err = client.Reconcile(t.Context(), &cartrpc.ReconcileRequest{DeliveryChoice: "moon"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetCart(t *testing.T) {
	store := cart.NewMemoryStore()
	svc := cart.NewService(store, fixedLoader{}, nil)
	client := dial(t, NewServer(svc, staticProducts{}, nil))

	require.NoError(t, store.SaveCart(t.Context(), "sess-1", []models.CartLine{line(2)}))

	resp, err := client.GetCart(t.Context(), &cartrpc.GetCartRequest{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, 30.0, resp.Cart.Total)

	stored, err := store.Cart(t.Context(), "sess-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored[0].Stock, "cached stock refreshed")

	resp, err = client.GetCart(t.Context(), &cartrpc.GetCartRequest{SessionID: "empty"})
	require.NoError(t, err)
	assert.NotNil(t, resp.Cart.Lines)
	assert.Empty(t, resp.Cart.Lines)

	_, err = client.GetCart(t.Context(), &cartrpc.GetCartRequest{SessionID: "  "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListProducts(t *testing.T) {
	client := dial(t, NewServer(nil, staticProducts{products: testProducts()}, nil))

	resp, err := client.ListProducts(t.Context(), &cartrpc.ListProductsRequest{Category: "hats"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Total)
	assert.Equal(t, "cap", resp.Items[0].ID)

	resp, err = client.ListProducts(t.Context(), &cartrpc.ListProductsRequest{Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)
	assert.Len(t, resp.Items, 1)

	_, err = client.ListProducts(t.Context(), &cartrpc.ListProductsRequest{Offset: -1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	broken := dial(t, NewServer(nil, staticProducts{err: errors.New("disk")}, nil))
	_, err = broken.ListProducts(t.Context(), &cartrpc.ListProductsRequest{})
	assert.Equal(t, codes.Internal, status.Code(err))
}
