package tokens

// Token counts here are an estimate used only for budget checks. Every caller
// gets the same tokenizer profile regardless of which model the conversation
// is actually sent to, so counts will drift from what Anthropic (or any
// non-OpenAI provider) reports.

import (
	"strings"
	"sync"
	"unicode"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

// ReferenceModel names the model whose encoding (cl100k_base) is used for
// every estimate.
const ReferenceModel = "gpt-4"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
	encErr  error
)

func init() {
	// Embedded BPE ranks; never reach out to the network for them
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

func encoding() (*tiktoken.Tiktoken, error) {
	encOnce.Do(func() {
		enc, encErr = tiktoken.EncodingForModel(ReferenceModel)
	})
	return enc, encErr
}

// Estimate returns the number of tokens in text under the ReferenceModel
// encoding. Special-token markers are counted as ordinary text. If the
// encoding can't be loaded the word-based Heuristic is used instead, which is
// still deterministic.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	e, err := encoding()
	if err != nil {
		return Heuristic(text)
	}

	return len(e.EncodeOrdinary(text))
}

// Available reports whether the reference encoding loaded.
func Available() bool {
	_, err := encoding()
	return err == nil
}

// Gemini created this function, along with tokenizeWord. It's not perfect by
// any means but it provided a decent estimate, compared to what the LLMs
// returned for the same prompt.
func Heuristic(text string) int {
	var tokenCount int
	words := strings.Fields(text)

	for _, word := range words {
		tokenCount += tokenizeWord(word)
	}

	return tokenCount
}

func tokenizeWord(word string) int {
	var tokens int
	inToken := false

	for _, char := range word {
		if unicode.IsLetter(char) || unicode.IsDigit(char) {
			inToken = true
			continue
		}

		// Punctuation, symbols and anything else close the current run and
		// count as a token of their own
		if inToken {
			tokens++
			inToken = false
		}
		if !unicode.IsSpace(char) {
			tokens++
		}
	}

	if inToken {
		tokens++
	}

	return tokens
}
