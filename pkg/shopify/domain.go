package shopify

import (
	"net/url"
	"regexp"
	"strings"
)

// ShopSuffix is the canonical suffix every shop domain carries.
const ShopSuffix = ".myshopify.com"

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9\-]*\.myshopify\.com$`)

// NormalizeShopDomain lowercases and trims a shop parameter.
func NormalizeShopDomain(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ValidShopDomain reports whether domain is a bare <name>.myshopify.com host.
func ValidShopDomain(domain string) bool {
	return shopDomainPattern.MatchString(NormalizeShopDomain(domain))
}

// ShopDomainFromDest extracts the shop host from a session token dest claim
// such as https://demo.myshopify.com.
func ShopDomainFromDest(dest string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(dest))
	if err != nil || u.Host == "" {
		return "", false
	}
	domain := NormalizeShopDomain(u.Hostname())
	if !ValidShopDomain(domain) {
		return "", false
	}
	return domain, true
}
