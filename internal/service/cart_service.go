package service

import (
	"context"
	"fmt"
	"sync"

	"ecoshopy/internal/cart"
	"ecoshopy/internal/cartstore"
	"ecoshopy/internal/model"
	"ecoshopy/internal/repository"

	"github.com/rs/zerolog"
)

// cartService implements CartService on top of a cart.Store.
type cartService struct {
	store       cart.Store
	productRepo repository.ProductRepository
	pricing     Pricing
	locks       *keyedMutex
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	store cart.Store,
	productRepo repository.ProductRepository,
	pricing Pricing,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		store:       store,
		productRepo: productRepo,
		pricing:     pricing,
		locks:       newKeyedMutex(),
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// Get returns the priced view of a cart.
func (s *cartService) Get(ctx context.Context, cartID string) (*cart.Summary, error) {
	if err := cartstore.ValidateID(cartID); err != nil {
		return nil, err
	}

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return s.summarize(c), nil
}

// AddItem merges a product into the cart. An omitted quantity adds one unit.
func (s *cartService) AddItem(ctx context.Context, cartID string, req model.CartItemRequest) (*cart.Summary, error) {
	if err := cartstore.ValidateID(cartID); err != nil {
		return nil, err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	item, err := s.catalogItem(ctx, req.ProductID, req.Variant)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	inCart := 0
	if line, ok := c.Line(item.Key()); ok {
		inCart = line.Quantity
	}
	if inCart+req.Quantity > item.Stock() {
		s.logger.Debug().
			Str("cart_id", cartID).
			Str("product_id", req.ProductID).
			Int("requested", inCart+req.Quantity).
			Int("stock", item.Stock()).
			Msg("add exceeds stock")
		return nil, model.ErrInsufficientStock
	}

	c.Add(item, req.Quantity)
	if err := s.save(ctx, cartID, c); err != nil {
		return nil, err
	}

	return s.summarize(c), nil
}

// UpdateItem sets the quantity of an existing line. Quantities below one
// leave the cart unchanged; lines are removed through RemoveItem.
func (s *cartService) UpdateItem(ctx context.Context, cartID, productID string, req model.CartItemRequest) (*cart.Summary, error) {
	if err := cartstore.ValidateID(cartID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	key := cart.Key{ProductID: productID, Variant: req.Variant}
	line, ok := c.Line(key)
	if !ok {
		return nil, model.ErrItemNotInCart
	}
	if req.Quantity < 1 || req.Quantity == line.Quantity {
		return s.summarize(c), nil
	}
	if req.Quantity > line.EffectiveStock() {
		return nil, model.ErrInsufficientStock
	}

	c.UpdateQuantity(key, req.Quantity)
	if err := s.save(ctx, cartID, c); err != nil {
		return nil, err
	}

	return s.summarize(c), nil
}

// RemoveItem deletes a line from the cart. Removing a missing line is a no-op.
func (s *cartService) RemoveItem(ctx context.Context, cartID, productID, variant string) (*cart.Summary, error) {
	if err := cartstore.ValidateID(cartID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}

	key := cart.Key{ProductID: productID, Variant: variant}
	if _, ok := c.Line(key); !ok {
		return s.summarize(c), nil
	}

	c.Remove(key)
	if err := s.save(ctx, cartID, c); err != nil {
		return nil, err
	}

	return s.summarize(c), nil
}

// Clear empties the cart by deleting its snapshot.
func (s *cartService) Clear(ctx context.Context, cartID string) error {
	if err := cartstore.ValidateID(cartID); err != nil {
		return err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	if err := s.store.Delete(ctx, cartID); err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	s.logger.Debug().Str("cart_id", cartID).Msg("cart cleared")
	return nil
}

// PrepareCheckout reloads every line from the catalogue so the order is
// priced at current prices, and rejects lines that exceed current stock.
// The refreshed cart is saved back before it is returned.
func (s *cartService) PrepareCheckout(ctx context.Context, cartID string) (*cart.Cart, error) {
	if err := cartstore.ValidateID(cartID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(cartID)
	defer unlock()

	c, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, model.ErrEmptyCart
	}

	lines := c.Lines()
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID).Msg("failed to refresh cart products")
		return nil, fmt.Errorf("failed to refresh cart: %w", err)
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok {
			s.logger.Warn().Str("cart_id", cartID).Str("product_id", l.ProductID).Msg("cart product no longer exists")
			return nil, model.ErrProductNotFound
		}

		item, err := cart.NewItem(p, l.Key().Variant)
		if err != nil {
			return nil, err
		}
		if l.Quantity > item.Stock() {
			s.logger.Info().
				Str("cart_id", cartID).
				Str("product_id", l.ProductID).
				Int("quantity", l.Quantity).
				Int("stock", item.Stock()).
				Msg("cart line exceeds stock at checkout")
			return nil, model.ErrInsufficientStock
		}
		c.Refresh(l.Key(), item)
	}

	if err := s.save(ctx, cartID, c); err != nil {
		return nil, err
	}

	return c, nil
}

// catalogItem resolves a product and optional variant into a cart item.
func (s *cartService) catalogItem(ctx context.Context, productID, variant string) (cart.Item, error) {
	if productID == "" {
		return cart.Item{}, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", productID).Msg("failed to get product")
		return cart.Item{}, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return cart.Item{}, model.ErrProductNotFound
	}

	return cart.NewItem(*product, variant)
}

func (s *cartService) load(ctx context.Context, cartID string) (*cart.Cart, error) {
	c, err := s.store.Load(ctx, cartID)
	if err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID).Msg("failed to load cart")
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

func (s *cartService) save(ctx context.Context, cartID string, c *cart.Cart) error {
	if err := s.store.Save(ctx, cartID, c); err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID).Msg("failed to save cart")
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *cartService) summarize(c *cart.Cart) *cart.Summary {
	shipping, tax := s.pricing.Charges(c.Subtotal())
	summary := c.Summary(shipping, tax)
	return &summary
}

// keyedMutex serialises work per key. Entries are dropped once no goroutine
// holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
