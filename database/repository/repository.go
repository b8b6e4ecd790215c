package repository

import (
	bookingRepo "shipbook/database/repository/booking"
	invoiceRepo "shipbook/database/repository/invoice"
	packageRepo "shipbook/database/repository/packages"
	recipientRepo "shipbook/database/repository/recipient"
	webhookRepo "shipbook/database/repository/webhook"
)

// Re-export the repository interfaces and their Mongo constructors.
type BookingRepository = bookingRepo.BookingRepository

var NewMongoBookingRepo = bookingRepo.NewMongoBookingRepo

type PackageRepository = packageRepo.PackageRepository

var NewMongoPackageRepo = packageRepo.NewMongoPackageRepo

type RecipientRepository = recipientRepo.RecipientRepository

var NewMongoRecipientRepo = recipientRepo.NewMongoRecipientRepo

type WebhookEventRepository = webhookRepo.WebhookEventRepository

var NewMongoWebhookEventRepo = webhookRepo.NewMongoWebhookEventRepo

type InvoiceRepository = invoiceRepo.InvoiceRepository

var NewMongoInvoiceRepo = invoiceRepo.NewMongoInvoiceRepo
