package voucher

import "errors"

var (
	ErrNilVoucher         = errors.New("voucher: nil voucher")
	ErrItemsMismatch      = errors.New("voucher: items and amounts length mismatch")
	ErrMalformedSignature = errors.New("voucher: malformed signature")
	ErrUnauthorized       = errors.New("voucher: unauthorized")
	ErrPriceMismatch      = errors.New("voucher: attached payment does not match price")
	ErrTransferFailed     = errors.New("voucher: transfer failed")
)
