package bot

const (
	MsgWelcome = `
		👋 Welcome to LootLook!

		Snap it. Price it. Loot it.

		Send me a photo of an item and I will identify it and estimate its market value.
	`
	MsgHelp = `
		Send a photo of a single item, as a photo or as an image file.

		I reply with:
		• what the item is
		• its estimated value from current listings
		• how rare it is and how much demand there is

		Commands:
		/start - Show the welcome message
		/help - Show this help
	`
	MsgSendPhoto         = "Send me a photo of an item to appraise it."
	MsgAnalyzing         = "🔍 Appraising..."
	MsgUnsupportedFile   = "That file is not an image I can read. Send a JPEG, PNG, WebP or HEIC photo."
	MsgImageTooLarge     = "That image is too large. The maximum size is %d MB."
	MsgDownloadFailed    = "Could not download the photo. Please try again."
	MsgIdentifyFailed    = "The item identification service is not available right now. Please try again later."
	MsgPricingFailed     = "The price lookup service is not available right now. Please try again later."
	MsgUnexpectedErr     = "Unexpected error: %s"
	MsgAppraisalTimedOut = "The appraisal took too long. Please try again."
)

const msgReport = `
	🔎 %s
	💰 %s

	⭐ Rarity: %s
	📈 Demand: %s
	🏷 Category: %s
	🎯 Confidence: %d%%
	📊 Based on %d %s

	%s
`
