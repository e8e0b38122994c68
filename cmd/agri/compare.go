package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kisanmitra/agri-advisor/internal/nlp/intent"
)

type labelledQuery struct {
	text string
	want intent.Intent
}

// compareSamples covers pure Hindi, romanized and code-mixed phrasing for every intent.
var compareSamples = []labelledQuery{
	{"मेरी फसल में रोग लग गया है", intent.CropAdvice},
	{"गेहूं का भाव क्या है आज", intent.PriceQuery},
	{"सरकारी योजना कैसे मिलेगी", intent.PolicyQuery},
	{"आज का मौसम कैसा है", intent.WeatherQuery},
	{"ट्रैक्टर में समस्या आ गई है", intent.TechnicalSupport},
	{"खेती के बारे में जानकारी चाहिए", intent.GeneralInquiry},
	{"मेरे crops में disease लग गया है", intent.CropAdvice},
	{"wheat का price क्या है mandi में", intent.PriceQuery},
	{"government scheme कैसे apply करें", intent.PolicyQuery},
	{"weather forecast कैसा है आज", intent.WeatherQuery},
	{"tractor में problem आ गई है", intent.TechnicalSupport},
	{"farming के बारे में information चाहिए", intent.GeneralInquiry},
	{"मेरी गेहूं की फसल में पीले पत्ते आ रहे हैं और पौधे सूख रहे हैं", intent.CropAdvice},
	{"आज के मंडी में धान का क्या भाव है और कल का क्या रहेगा", intent.PriceQuery},
	{"पीएम किसान योजना में कैसे आवेदन करना है", intent.PolicyQuery},
	{"अगले हफ्ते बारिश का मौसम कैसा रहेगा", intent.WeatherQuery},
	{"मेरे सिंचाई सिस्टम में कुछ तकनीकी समस्या आ गई है", intent.TechnicalSupport},
	{"जैविक खेती के बारे में पूरी जानकारी चाहिए", intent.GeneralInquiry},
	{"gehun ka bhav kya hai", intent.PriceQuery},
	{"Will it rain in Pune tomorrow?", intent.WeatherQuery},
	{"PM-KISAN ke liye kaise apply karein", intent.PolicyQuery},
	{"drip irrigation system kaam nahi kar raha", intent.TechnicalSupport},
}

func newCompareCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "compare [query...]",
		Short: "Compare the rule-only classifier with the configured ensemble",
		Long: "Without arguments, runs a labelled Hindi, English and code-mixed sample set and\n" +
			"reports the accuracy of both classifiers. Queries given as arguments are unlabelled,\n" +
			"so only agreement is reported.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			queries := compareSamples
			labelled := len(args) == 0
			if !labelled {
				queries = make([]labelledQuery, len(args))
				for i, q := range args {
					queries[i] = labelledQuery{text: q}
				}
			}
			ensemble := a.Pipeline.Classifier()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ensemble scorers: %s\n\n", strings.Join(ensemble.ScorerNames(), ", "))

			agree, ruleHits, ensembleHits := 0, 0, 0
			for _, q := range queries {
				normalized := a.Pipeline.Normalize(q.text)
				simple := a.Simple.Classify(cmd.Context(), normalized)
				full := ensemble.Classify(cmd.Context(), normalized)
				mark := "differs"
				if simple.PrimaryIntent == full.PrimaryIntent {
					mark = "same"
					agree++
				}
				fmt.Fprintf(out, "%s\n", q.text)
				if labelled {
					fmt.Fprintf(out, "  expected: %s\n", q.want)
				}
				fmt.Fprintf(out, "  rule:     %s%s\n", describeClassification(simple), verdict(labelled, simple, q.want, &ruleHits))
				fmt.Fprintf(out, "  ensemble: %s%s  [%s]\n", describeClassification(full), verdict(labelled, full, q.want, &ensembleHits), mark)
				if len(full.Skipped) > 0 {
					fmt.Fprintf(out, "  skipped:  %s\n", strings.Join(full.Skipped, ", "))
				}
			}
			fmt.Fprintf(out, "\nAgreement: %d/%d\n", agree, len(queries))
			if labelled {
				fmt.Fprintf(out, "Accuracy:  rule %s, ensemble %s\n",
					ratio(ruleHits, len(queries)), ratio(ensembleHits, len(queries)))
			}
			return nil
		},
	}
}

func describeClassification(c intent.Classification) string {
	return fmt.Sprintf("%-18s %.2f (%s)", c.PrimaryIntent, c.Confidence, c.ConfidenceLevel)
}

// verdict marks a labelled prediction and counts the hit.
func verdict(labelled bool, c intent.Classification, want intent.Intent, hits *int) string {
	if !labelled {
		return ""
	}
	if c.PrimaryIntent == want {
		*hits++
		return " ✓"
	}
	return " ✗"
}

func ratio(n, total int) string {
	if total == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d (%.0f%%)", n, total, 100*float64(n)/float64(total))
}
