// internal/pkg/locale/messages.go
package locale

var builtinMessages = map[string]map[string]string{
	"invoice.header":         {"en": "POS System Invoice", "es": "Factura del sistema POS", "fr": "Facture du système POS", "ar": "فاتورة نظام نقاط البيع"},
	"invoice.sale_number":    {"en": "Sale #", "es": "Venta #", "fr": "Vente #", "ar": "رقم البيع"},
	"invoice.completed":      {"en": "Completed:", "es": "Completado:", "fr": "Terminé :", "ar": "مكتمل:"},
	"invoice.column.id":      {"en": "ID", "es": "ID", "fr": "ID", "ar": "المعرف"},
	"invoice.column.product": {"en": "Product", "es": "Producto", "fr": "Produit", "ar": "المنتج"},
	"invoice.column.qty":     {"en": "Qty", "es": "Cant.", "fr": "Qté", "ar": "الكمية"},
	"invoice.column.price":   {"en": "Price", "es": "Precio", "fr": "Prix", "ar": "السعر"},
	"invoice.column.total":   {"en": "Total", "es": "Total", "fr": "Total", "ar": "الإجمالي"},
	"invoice.subtotal":       {"en": "Subtotal:", "es": "Subtotal:", "fr": "Sous-total :", "ar": "الإجمالي الفرعي:"},
	"invoice.tax":            {"en": "Tax:", "es": "Impuesto:", "fr": "Taxe :", "ar": "الضريبة:"},
	"invoice.total":          {"en": "Balance Due:", "es": "Total:", "fr": "Montant dû :", "ar": "المبلغ المستحق:"},
	"invoice.footer": {
		"en": "Thank you for shopping with us!",
		"es": "¡Gracias por su compra!",
		"fr": "Merci de votre achat !",
		"ar": "شكراً لتسوقكم معنا!",
	},

	"inventory.error.duplicate": {
		"en": "Product ID already exists",
		"es": "El ID del producto ya existe",
		"fr": "L'identifiant du produit existe déjà",
		"ar": "معرّف المنتج موجود بالفعل",
	},
	"inventory.error.database": {
		"en": "Database error: {error}",
		"es": "Error de base de datos: {error}",
		"fr": "Erreur de base de données : {error}",
		"ar": "خطأ في قاعدة البيانات: {error}",
	},
	"inventory.error.negative": {
		"en": "Price and stock must be non-negative",
		"es": "El precio y las existencias deben ser no negativos",
		"fr": "Le prix et le stock doivent être positifs",
		"ar": "يجب أن يكون السعر والمخزون غير سالبين",
	},
	"inventory.error.required": {
		"en": "Product ID and name are required",
		"es": "El ID y el nombre del producto son obligatorios",
		"fr": "L'identifiant du produit et le nom sont obligatoires",
		"ar": "معرّف المنتج والاسم مطلوبان",
	},

	"sales.status.not_found": {
		"en": "Product ID not found in inventory.",
		"es": "ID de producto no encontrado en el inventario.",
		"fr": "Identifiant produit introuvable dans l'inventaire.",
		"ar": "معرّف المنتج غير موجود في المخزون.",
	},
	"sales.status.no_longer_exists": {
		"en": "Product {product_id} no longer exists.",
		"es": "El producto {product_id} ya no existe.",
		"fr": "Le produit {product_id} n'existe plus.",
		"ar": "المنتج {product_id} لم يعد موجوداً.",
	},
	"sales.error.insufficient_stock": {
		"en": "Only {stock} units available for {name}",
		"es": "Solo hay {stock} unidades disponibles de {name}",
		"fr": "Seulement {stock} unités disponibles pour {name}",
		"ar": "متوفر فقط {stock} وحدة من {name}",
	},
	"sales.error.quantity": {
		"en": "Quantity must be a positive integer.",
		"es": "La cantidad debe ser un entero positivo.",
		"fr": "La quantité doit être un entier positif.",
		"ar": "يجب أن تكون الكمية عدداً صحيحاً موجباً.",
	},
	"sales.warning.empty": {
		"en": "No items in cart to finalize",
		"es": "No hay artículos en el carrito para finalizar",
		"fr": "Aucun article dans le panier à finaliser",
		"ar": "لا توجد عناصر في السلة للإتمام",
	},
	"sales.error.database": {
		"en": "Failed to finalize sale: {error}",
		"es": "No se pudo finalizar la venta: {error}",
		"fr": "Impossible de finaliser la vente : {error}",
		"ar": "تعذر إتمام البيع: {error}",
	},
	"sales.error.line_missing": {
		"en": "{product_id} is not in the cart.",
		"es": "{product_id} no está en el carrito.",
		"fr": "{product_id} n'est pas dans le panier.",
		"ar": "{product_id} غير موجود في السلة.",
	},
	"sales.status.removed": {
		"en": "Removed {name} from the cart.",
		"es": "{name} eliminado del carrito.",
		"fr": "{name} retiré du panier.",
		"ar": "تمت إزالة {name} من السلة.",
	},

	"history.hero.empty": {
		"en": "No purchases recorded yet.",
		"es": "Aún no se registran compras.",
		"fr": "Aucun achat enregistré pour le moment.",
		"ar": "لا توجد عمليات شراء مسجلة بعد.",
	},
	"history.hero.summary": {
		"en": "{count} sales • {revenue} revenue captured",
		"es": "{count} ventas • {revenue} ingresos registrados",
		"fr": "{count} ventes • {revenue} de chiffre d'affaires",
		"ar": "{count} عملية بيع • إيرادات {revenue}",
	},
	"history.details.line": {
		"en": "{quantity} × {name} (@ {price}) = {total}",
		"es": "{quantity} × {name} (@ {price}) = {total}",
		"fr": "{quantity} × {name} (@ {price}) = {total}",
		"ar": "{quantity} × {name} (@ {price}) = {total}",
	},

	"settings.applied.status": {
		"en": "Preferences updated.",
		"es": "Preferencias actualizadas.",
		"fr": "Préférences mises à jour.",
		"ar": "تم تحديث التفضيلات.",
	},
	"settings.error.language": {
		"en": "Unsupported language: {language}",
		"es": "Idioma no compatible: {language}",
		"fr": "Langue non prise en charge : {language}",
		"ar": "لغة غير مدعومة: {language}",
	},
	"settings.error.currency": {
		"en": "Unsupported currency: {currency}",
		"es": "Moneda no compatible: {currency}",
		"fr": "Devise non prise en charge : {currency}",
		"ar": "عملة غير مدعومة: {currency}",
	},
}
