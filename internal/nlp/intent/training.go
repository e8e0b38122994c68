package intent

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

// Example is one labelled training sentence.
type Example struct {
	Text   string `json:"text"`
	Intent Intent `json:"intent"`
}

// exemplars seed both the naive Bayes model and the semantic scorer.
var exemplars = map[Intent][]string{
	CropAdvice: {
		"how to control pests in cotton crop",
		"which fertilizer is best for wheat",
		"my tomato leaves are turning yellow what should I do",
		"best time to sow paddy",
		"how much urea should I apply per acre",
		"organic treatment for fungus on potato",
		"how to increase yield of mustard",
		"when should I irrigate my wheat crop",
		"which variety of maize gives more yield",
		"remedy for blight disease in tomato",
		"how to prepare soil before sowing",
		"how often should I water sugarcane",
		"how to grow onion in sandy soil",
		"weed control in soybean field",
	},
	PolicyQuery: {
		"how to apply for pm-kisan scheme",
		"what subsidy is available for drip irrigation",
		"eligibility for crop insurance scheme",
		"how to get kisan-credit-card loan",
		"government scheme for buying tractor",
		"documents needed for pmfby registration",
		"what is the procedure to get soil health card",
		"is there any grant for organic farming",
		"benefits of pmksy for small farmers",
		"how can I check my pm-kisan installment status",
		"government assistance for farm equipment purchase",
		"subsidy on solar pump for farmers",
	},
	PriceQuery: {
		"what is the price of rice in punjab mandi",
		"current market rate of wheat",
		"onion price today in nashik",
		"what is the msp for paddy this year",
		"where can I sell my cotton at a good price",
		"tomato rate in azadpur mandi",
		"price trend of soybean this month",
		"how much does one quintal of mustard cost",
		"modal price of potato in agra market",
		"best mandi to sell chickpea",
		"today's mandi bhav for maize",
		"what are vegetable prices in the market",
	},
	WeatherQuery: {
		"will it rain tomorrow in ludhiana",
		"weather forecast for next week",
		"what is the temperature today",
		"is there any chance of frost this week",
		"when will the monsoon arrive",
		"how much rainfall is expected this month",
		"is a heat wave expected in rajasthan",
		"weather conditions for spraying tomorrow",
		"will there be a storm in the next few days",
		"humidity level in my area today",
		"is it going to be cloudy this weekend",
		"drought forecast for this season",
	},
	TechnicalSupport: {
		"the app is not working on my phone",
		"I forgot my password how to login",
		"I am not receiving the otp",
		"how to install the kisan app",
		"error while uploading documents on the portal",
		"my soil moisture sensor is showing wrong values",
		"tractor engine is not starting how to repair",
		"how to use the drone for spraying",
		"website keeps crashing when I submit the form",
		"how to update my account details",
		"drip irrigation pump is not working",
		"sms alerts have stopped coming",
	},
	GeneralInquiry: {
		"hello",
		"namaste",
		"who are you",
		"what can you do",
		"thank you for the help",
		"good morning",
		"can you help me",
		"tell me something about farming in india",
		"what information do you have",
		"thanks a lot",
		"how are you",
		"I need some information",
	},
}

// DefaultExamples flattens the built-in exemplars in intent order.
func DefaultExamples() []Example {
	var out []Example
	for _, in := range All {
		for _, text := range exemplars[in] {
			out = append(out, Example{Text: text, Intent: in})
		}
	}
	return out
}

// LoadExamples reads a JSON-lines file of {"text": ..., "intent": ...} objects.
// Blank lines are skipped; unknown intents are an error.
func LoadExamples(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training file %s: %w", path, err)
	}
	defer f.Close()

	var out []Example
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		if !gjson.Valid(raw) {
			return nil, fmt.Errorf("%s:%d: invalid JSON", path, line)
		}
		text := gjson.Get(raw, "text").String()
		in := Intent(gjson.Get(raw, "intent").String())
		if text == "" || !in.Valid() {
			return nil, fmt.Errorf("%s:%d: need non-empty text and a known intent, got %q", path, line, in)
		}
		out = append(out, Example{Text: text, Intent: in})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read training file %s: %w", path, err)
	}
	return out, nil
}
