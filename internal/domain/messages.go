package domain

// User-visible display strings.
const (
	MsgExtractingImage    = "Extracting text..."
	MsgNoTextInImage      = "No text found in the image."
	MsgImageFailed        = "An error occurred while processing the image."
	MsgExtractingPDF      = "Extracting text from PDF..."
	MsgNoTextInPDF        = "No text found in the PDF."
	MsgPDFFailed          = "An error occurred while processing the PDF."
	MsgPageProgressFormat = "Processing page %d of %d..."
	MsgCropNeedsImage     = "Please upload an image to use the region selection feature."
	MsgNothingToCopy      = "No text to copy. Please extract text from a file first."
	MsgCopied             = "Text copied to clipboard!"
	LabelSelectRegion     = "Select Region"
	LabelExtractRegion    = "Extract Selected Region"
)
