package llm

// TranscribePrompt instructs a vision model to act as OCR for a single resume page.
const TranscribePrompt = `Transcribe all text visible in this image of a resume page.
Return only the text, in reading order, one line per visual line.
Do not summarize, translate, or add commentary. If the page has no text, return nothing.`
