package app

const (
	msgEchoPrefix      = "Your original message: "
	msgUnsupported     = "Unsupported message type."
	msgPredictionError = "Failed to get prediction from YOLO service."
	msgNoResult        = "Could not get a detection result for this image. Try another photo."

	// QuoteSentinel текст, на который QuoteEchoPolicy отвечает без цитаты
	QuoteSentinel = "Please don't quote me"
)
