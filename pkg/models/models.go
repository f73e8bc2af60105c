package models

// All returns every model for AutoMigrate, parents before children so
// foreign keys resolve in order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&SubCategory{},
		&SubSubCategory{},
		&Author{},
		&Publisher{},
		&Book{},
		&Cart{},
		&CartItem{},
		&Stock{},
		&StockMovement{},
		&InventoryAudit{},
		&InventoryAuditItem{},
		&Order{},
		&OrderItem{},
		&OrderTracking{},
		&Return{},
		&ReturnItem{},
		&Coupon{},
		&CouponUsage{},
		&BookSale{},
		&BookSaleItem{},
		&VendorProfile{},
		&StockOffer{},
		&OfferStatusNotification{},
		&VendorTicket{},
		&VendorTicketResponse{},
		&LogisticsPartner{},
		&VendorLocation{},
		&DeliverySchedule{},
		&DeliveryTracking{},
		&StockReceiptConfirmation{},
		&DeliveryPartner{},
		&Delivery{},
		&DeliveryUpdate{},
		&DeliveryLocation{},
		&PaymentRecord{},
		&Review{},
		&ReviewHelpful{},
		&WishlistItem{},
		&WishlistCollection{},
		&WishlistCollectionItem{},
		&SupportTicket{},
		&TicketResponse{},
		&FAQ{},
	}
}
