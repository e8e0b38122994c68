package core

type cannedMessage int

const (
	msgSetCity cannedMessage = iota
	msgLocationNotFound
	msgWeatherUnavailable
	msgPriceUnavailable
	msgNoPrices
	msgPolicyUnavailable
	msgGeneralUnavailable
)

// Messages containing %q take the location name.
var cannedMessages = map[cannedMessage]map[ReplyLanguage]string{
	msgSetCity: {
		ReplyEnglish:  "Please tell me your city or district so I can check the weather, for example: city Pune.",
		ReplyHindi:    "मौसम की जानकारी के लिए कृपया अपना शहर या ज़िला बताएं, जैसे: city Pune.",
		ReplyHinglish: "Mausam check karne ke liye apna shehar ya zila batayein, jaise: city Pune.",
	},
	msgLocationNotFound: {
		ReplyEnglish:  "I could not find the place %q. Please check the spelling or name a nearby district.",
		ReplyHindi:    "मुझे %q नाम की जगह नहीं मिली। कृपया वर्तनी जाँचें या पास का ज़िला बताएं।",
		ReplyHinglish: "Mujhe %q jagah nahi mili. Spelling check karein ya paas ka zila batayein.",
	},
	msgWeatherUnavailable: {
		ReplyEnglish:  "Weather information is not available right now. Please try again later.",
		ReplyHindi:    "अभी मौसम की जानकारी उपलब्ध नहीं है। कृपया थोड़ी देर बाद प्रयास करें।",
		ReplyHinglish: "Abhi mausam ki jaankari uplabdh nahi hai. Thodi der baad try karein.",
	},
	msgPriceUnavailable: {
		ReplyEnglish:  "Mandi price information is not available right now. Please try again later.",
		ReplyHindi:    "अभी मंडी भाव की जानकारी उपलब्ध नहीं है। कृपया थोड़ी देर बाद प्रयास करें।",
		ReplyHinglish: "Abhi mandi bhav ki jaankari uplabdh nahi hai. Thodi der baad try karein.",
	},
	msgNoPrices: {
		ReplyEnglish:  "I could not find matching mandi prices. Try naming the crop and market, for example: onion price in Nashik.",
		ReplyHindi:    "मिलते-जुलते मंडी भाव नहीं मिले। फसल और मंडी का नाम बताएं, जैसे: नासिक में प्याज का भाव।",
		ReplyHinglish: "Matching mandi bhav nahi mile. Fasal aur mandi ka naam batayein, jaise: Nashik mein pyaz ka bhav.",
	},
	msgPolicyUnavailable: {
		ReplyEnglish:  "I could not look up scheme details right now. Please check with your nearest Krishi Vigyan Kendra or agriculture office.",
		ReplyHindi:    "अभी योजना की जानकारी नहीं मिल सकी। कृपया नज़दीकी कृषि विज्ञान केंद्र या कृषि कार्यालय से संपर्क करें।",
		ReplyHinglish: "Abhi yojana ki jaankari nahi mil saki. Kripya nazdeeki Krishi Vigyan Kendra ya krishi office se sampark karein.",
	},
	msgGeneralUnavailable: {
		ReplyEnglish:  "I cannot answer right now. For urgent help call the Kisan Call Centre at 1800-180-1551.",
		ReplyHindi:    "मैं अभी उत्तर नहीं दे पा रहा हूँ। तुरंत सहायता के लिए किसान कॉल सेंटर 1800-180-1551 पर कॉल करें।",
		ReplyHinglish: "Main abhi jawab nahi de pa raha hoon. Turant madad ke liye Kisan Call Centre 1800-180-1551 par call karein.",
	},
}

func cannedText(m cannedMessage, lang ReplyLanguage) string {
	if text, ok := cannedMessages[m][lang]; ok {
		return text
	}
	return cannedMessages[m][ReplyEnglish]
}
