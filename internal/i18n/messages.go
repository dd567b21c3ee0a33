package i18n

import "github.com/tokonext/internal/constants"

var catalog = map[string]map[string]string{
	constants.LocaleEnUS: {
		"error.bad_request":              "Invalid request",
		"error.internal":                 "Internal server error",
		"error.unauthorized":             "Unauthorized",
		"error.user_id_invalid":          "Invalid user",
		"error.user_id_type_invalid":     "Invalid user context",
		"error.jwt_secret_missing":       "Authentication is not configured",
		"error.auth_header_missing":      "Missing authorization header",
		"error.auth_header_invalid":      "Invalid authorization header",
		"error.token_invalid":            "Invalid or expired token",
		"error.token_revoked":            "Token has been revoked",
		"error.user_disabled":            "Account is disabled",
		"error.rate_limited":             "Too many requests, please retry in %d seconds",
		"error.idempotency_conflict":     "Idempotency-Key was reused with a different request",
		"error.idempotency_in_progress":  "A request with this Idempotency-Key is still being processed",
		"error.cart_empty":               "Cart is empty",
		"error.no_items_selected":        "No items selected",
		"error.cart_item_not_found":      "Cart item not found",
		"error.cart_quantity_invalid":    "Quantity must be greater than zero",
		"error.cart_fetch_failed":        "Failed to load cart",
		"error.cart_update_failed":       "Failed to update cart",
		"error.variant_not_found":        "Variant not found",
		"error.product_not_found":        "Product not found",
		"error.insufficient_stock":       "Insufficient stock for %s, available: %d",
		"error.catalog_fetch_failed":     "Failed to load catalog",
		"error.address_not_found":        "Address not found",
		"error.address_in_use":           "Address is used by an existing order",
		"error.address_save_failed":      "Failed to save address",
		"error.address_fetch_failed":     "Failed to load addresses",
		"error.payment_method_required":  "Payment method is required",
		"error.order_not_found":          "Order not found",
		"error.order_fetch_failed":       "Failed to load orders",
		"error.order_create_failed":      "Failed to place order",
		"error.order_number_conflict":    "Order number collision, please retry",
		"error.payment_not_found":        "Payment not found",
		"error.payment_not_continuable":  "Payment cannot be continued",
		"error.payment_gateway_failed":   "Payment gateway request failed",
		"error.payment_continue_failed":  "Failed to continue payment",
		"error.webhook_payload_invalid":  "Invalid notification payload",
		"error.signature_invalid":        "Invalid signature",
		"error.webhook_failed":           "Internal server error",
	},
	constants.LocaleIDID: {
		"error.bad_request":              "Permintaan tidak valid",
		"error.internal":                 "Terjadi kesalahan pada server",
		"error.unauthorized":             "Tidak memiliki akses",
		"error.user_id_invalid":          "Pengguna tidak valid",
		"error.user_id_type_invalid":     "Konteks pengguna tidak valid",
		"error.jwt_secret_missing":       "Autentikasi belum dikonfigurasi",
		"error.auth_header_missing":      "Header otorisasi tidak ditemukan",
		"error.auth_header_invalid":      "Header otorisasi tidak valid",
		"error.token_invalid":            "Token tidak valid atau kedaluwarsa",
		"error.token_revoked":            "Token sudah dicabut",
		"error.user_disabled":            "Akun dinonaktifkan",
		"error.rate_limited":             "Terlalu banyak permintaan, coba lagi dalam %d detik",
		"error.idempotency_conflict":     "Idempotency-Key dipakai untuk permintaan berbeda",
		"error.idempotency_in_progress":  "Permintaan dengan Idempotency-Key ini masih diproses",
		"error.cart_empty":               "Keranjang kosong",
		"error.no_items_selected":        "Tidak ada item yang dipilih",
		"error.cart_item_not_found":      "Item keranjang tidak ditemukan",
		"error.cart_quantity_invalid":    "Jumlah harus lebih dari nol",
		"error.cart_fetch_failed":        "Gagal memuat keranjang",
		"error.cart_update_failed":       "Gagal memperbarui keranjang",
		"error.variant_not_found":        "Varian tidak ditemukan",
		"error.product_not_found":        "Produk tidak ditemukan",
		"error.insufficient_stock":       "Stok %s tidak mencukupi, tersedia: %d",
		"error.catalog_fetch_failed":     "Gagal memuat katalog",
		"error.address_not_found":        "Alamat tidak ditemukan",
		"error.address_in_use":           "Alamat dipakai oleh pesanan",
		"error.address_save_failed":      "Gagal menyimpan alamat",
		"error.address_fetch_failed":     "Gagal memuat alamat",
		"error.payment_method_required":  "Metode pembayaran wajib diisi",
		"error.order_not_found":          "Pesanan tidak ditemukan",
		"error.order_fetch_failed":       "Gagal memuat pesanan",
		"error.order_create_failed":      "Gagal membuat pesanan",
		"error.order_number_conflict":    "Nomor pesanan bentrok, silakan coba lagi",
		"error.payment_not_found":        "Pembayaran tidak ditemukan",
		"error.payment_not_continuable":  "Pembayaran tidak dapat dilanjutkan",
		"error.payment_gateway_failed":   "Permintaan ke payment gateway gagal",
		"error.payment_continue_failed":  "Gagal melanjutkan pembayaran",
		"error.webhook_payload_invalid":  "Payload notifikasi tidak valid",
		"error.signature_invalid":        "Signature tidak valid",
		"error.webhook_failed":           "Terjadi kesalahan pada server",
	},
}
