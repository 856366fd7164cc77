package admin

import (
	"net/netip"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// validate is a package-level singleton; validators cache struct metadata.
var validate = validator.New()

type addRequest struct {
	Address string `validate:"required,ipv4"`
	Owner   string `validate:"omitempty,max=64,excludesall=<>"`
}

// IsIPv4 reports whether s is a dotted-quad IPv4 literal: four decimal
// octets in 0-255, no leading zeros, nothing else.
func IsIPv4(s string) bool {
	if err := validate.Var(s, "required,ipv4"); err != nil {
		return false
	}
	addr, err := netip.ParseAddr(s)
	if err != nil || !addr.Is4() {
		return false
	}
	// Only the canonical spelling is accepted.
	return addr.String() == s
}

// NormalizeOwner trims an owner label and puts it in Unicode NFC, so that
// visually identical names compare equal in the store.
func NormalizeOwner(owner string) string {
	return norm.NFC.String(strings.TrimSpace(owner))
}

// validateAdd checks an add request and returns the outcome to report, or ""
// when the request is valid.
func validateAdd(address, owner string) Outcome {
	if !IsIPv4(address) {
		return InvalidAddress
	}
	if err := validate.Struct(addRequest{Address: address, Owner: owner}); err != nil {
		return InvalidOwner
	}
	return ""
}
