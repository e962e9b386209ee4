package service

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrInvalidLine         = errors.New("cart line needs a product id and a non-negative price")
	ErrDuplicateRequest    = errors.New("duplicate request")
	ErrDuplicateAccount    = errors.New("account with this mobile number already exists")
	ErrInvalidCredentials  = errors.New("invalid mobile number or password")
	ErrMissingField        = errors.New("required field missing")
	ErrInvalidRole         = errors.New("role must be customer or vendor")
	ErrShopDetailsRequired = errors.New("vendor accounts need a shop name and address")
	ErrAccountNotFound     = errors.New("account not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrOTPNotSent          = errors.New("otp has not been sent")
	ErrInvalidOTP          = errors.New("invalid otp")
	ErrNotVendor           = errors.New("only vendor accounts manage products")
	ErrInvalidProduct      = errors.New("product needs a name, a non-negative price and stock")
	ErrProductNotFound     = errors.New("product not found")
	ErrShopNotFound        = errors.New("shop not found")
	ErrInvalidPreference   = errors.New("unsupported theme or language")
)
