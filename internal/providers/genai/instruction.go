package genai

import "strings"

// SystemInstruction leads the user turn of every edit. Image models reject
// the systemInstruction field, so it is sent as the first text part.
var SystemInstruction = strings.Join([]string{
	"You are an AI assistant that creates professional passport photos from a user's image.",
	"- The person's face, facial features, hair style, and head shape MUST NOT be altered in any way. Preserve the original identity.",
	"- Change the clothing to be formal or business-appropriate attire (e.g., a collared shirt, blouse, or suit jacket). The clothing should look natural on the person.",
	"- Replace the background with a solid white color (#FFFFFF), suitable for official passport photos.",
	"- The final image should be a high-quality, realistic, portrait-style photograph.",
	"- Output ONLY the generated image file. Do not include any text, explanation, or commentary.",
}, "\n")

// UserPrompt accompanies the uploaded photo in the user turn.
const UserPrompt = "Generate a professional passport photo."
