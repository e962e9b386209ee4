package handler

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/core/service"
)

type CartItem struct {
	ShopID    string `json:"shop_id"`
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

// PlaceOrderRequest adds Items to the caller's cart, then checks it out.
type PlaceOrderRequest struct {
	RequestID string     `json:"request_id"`
	Items     []CartItem `json:"items,omitempty"`
}

type PlaceOrderResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order,omitempty"`
}

type ListOrdersRequest struct{}

type ListOrdersResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Orders  []domain.Order `json:"orders"`
}

// ShopServer is the server API of the shopy.Shop service. Callers
// authenticate with a session token in the "authorization" metadata.
type ShopServer interface {
	PlaceOrder(context.Context, *PlaceOrderRequest) (*PlaceOrderResponse, error)
	ListOrders(context.Context, *ListOrdersRequest) (*ListOrdersResponse, error)
}

func RegisterShopServer(s grpc.ServiceRegistrar, srv ShopServer) {
	s.RegisterService(&shopServiceDesc, srv)
}

var shopServiceDesc = grpc.ServiceDesc{
	ServiceName: "shopy.Shop",
	HandlerType: (*ShopServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: placeOrderHandler},
		{MethodName: "ListOrders", Handler: listOrdersHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopy/shop",
}

func placeOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PlaceOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServer).PlaceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/shopy.Shop/PlaceOrder"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServer).PlaceOrder(ctx, req.(*PlaceOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listOrdersHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListOrdersRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ShopServer).ListOrders(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/shopy.Shop/ListOrders"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ShopServer).ListOrders(ctx, req.(*ListOrdersRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// ShopClient calls the shopy.Shop service using the JSON codec.
type ShopClient struct {
	cc grpc.ClientConnInterface
}

func NewShopClient(cc grpc.ClientConnInterface) *ShopClient {
	return &ShopClient{cc: cc}
}

func (c *ShopClient) PlaceOrder(ctx context.Context, in *PlaceOrderRequest, opts ...grpc.CallOption) (*PlaceOrderResponse, error) {
	out := new(PlaceOrderResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/shopy.Shop/PlaceOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ShopClient) ListOrders(ctx context.Context, in *ListOrdersRequest, opts ...grpc.CallOption) (*ListOrdersResponse, error) {
	out := new(ListOrdersResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/shopy.Shop/ListOrders", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// WithToken attaches a session token to outgoing calls.
func WithToken(ctx context.Context, token string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)
}

type GRPCHandler struct {
	svc    Services
	logger *zap.Logger
}

func NewGRPCHandler(svc Services, logger *zap.Logger) *GRPCHandler {
	return &GRPCHandler{svc: svc, logger: logger}
}

func (h *GRPCHandler) session(ctx context.Context) (*service.Session, error) {
	var token string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get("authorization"); len(v) > 0 {
			token = strings.TrimSpace(strings.TrimPrefix(v[0], "Bearer "))
		}
	}
	sess, err := h.svc.Sessions.Get(ctx, token)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid or expired session")
	}
	return sess, nil
}

func (h *GRPCHandler) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*PlaceOrderResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	lines, err := h.resolveItems(req.Items)
	if err != nil {
		return &PlaceOrderResponse{Success: false, Message: h.message(err)}, nil
	}

	// The request id is consumed before the cart changes, so a retried
	// request never adds its items twice.
	if err := h.svc.Orders.Reserve(ctx, sess, req.RequestID); err != nil {
		return &PlaceOrderResponse{Success: false, Message: h.message(err)}, nil
	}
	if err := sess.Cart.AddLines(lines...); err != nil {
		return &PlaceOrderResponse{Success: false, Message: h.message(err)}, nil
	}

	order, err := h.svc.Orders.Place(ctx, sess)
	if err != nil {
		return &PlaceOrderResponse{Success: false, Message: h.message(err)}, nil
	}

	return &PlaceOrderResponse{
		Success: true,
		Message: "order placed successfully",
		Order:   &order,
	}, nil
}

// resolveItems looks up every item in the directory. Nothing is returned
// unless all items resolve.
func (h *GRPCHandler) resolveItems(items []CartItem) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		if item.Quantity < 0 {
			return nil, service.ErrInvalidQuantity
		}
		shop, product, err := h.svc.Directory.Product(item.ShopID, item.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, service.LineFromProduct(product, shop.Name, int(item.Quantity)))
	}
	return lines, nil
}

func (h *GRPCHandler) ListOrders(ctx context.Context, _ *ListOrdersRequest) (*ListOrdersResponse, error) {
	sess, err := h.session(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := sess.Cart.ListOrders(ctx)
	if err != nil {
		return &ListOrdersResponse{Success: false, Message: h.message(err)}, nil
	}
	return &ListOrdersResponse{Success: true, Orders: orders}, nil
}

func (h *GRPCHandler) message(err error) string {
	if service.IsUserError(err) || errors.Is(err, service.ErrProductNotFound) || errors.Is(err, service.ErrShopNotFound) {
		return err.Error()
	}
	h.logger.Error("grpc request failed", zap.Error(err))
	return "internal error"
}
