package extraction

// ExtractionPrompt is the fixed instruction sent with every page
// image. The model is told to transcribe, never to judge: validation
// happens on our side, and anything it cannot read must come back as
// the literal "unclear" so the validator can flag it.
const ExtractionPrompt = `You are transcribing one photographed page of a paper learner-driver logbook. Return a single JSON object with exactly these fields:

- "pageType": one of "day_supervised", "night_supervised", "professional_driving", "professional_stamp"
- "pageNumber": the printed page number as an integer, or null if not visible
- "entries": an array with one object per handwritten row, each with:
    - "index": 1-based row position on the page
    - "date": the date exactly as written (e.g. "5/3/24")
    - "supervisor": the supervisor or instructor name as written
    - "licenceNumber": the supervisor licence / ADI number as written
    - "startTime": the start time as written (e.g. "9:15")
    - "finishTime": the finish time as written
    - "duration": the duration column as written (e.g. "1:30" or "1.5")
    - "signaturePresent": true if the signature cell is signed
    - "odometerStart": the start odometer reading as a number, or null
    - "odometerFinish": the finish odometer reading as a number, or null
    - "confidence": your own legibility rating for the row, "high", "medium" or "low"
    - "notes": anything unusual about the row, or ""
- "subtotal": the handwritten page subtotal as written, or null
- "pageNotes": anything unusual about the page as a whole, or ""

Rules:
- Transcribe exactly what is written. Do NOT correct arithmetic, dates or spelling.
- If any text cell is illegible or smudged, use the exact string "unclear" for that cell.
- Include crossed-out rows only if a replacement was not written; rate them "low".
- Never invent rows. An empty page has an empty entries array.

Respond with ONLY the JSON object, no other text.`
