package nlp

// romanHindiWords are Latin-script words that mark a query as Hindi written in
// Roman letters. Words that are also common English words are left out.
var romanHindiWords = toSet(
	"mera", "meri", "mere", "mujhe", "hum", "humein", "hamara", "hamari", "aap", "aapka", "tum",
	"kya", "kaise", "kab", "kahan", "kyun", "kyon", "kaun", "kitna", "kitni", "kitne",
	"hai", "hain", "tha", "thi", "hoga", "hogi", "nahi", "nahin", "aur", "ya", "ki", "ka", "ke", "ko",
	"se", "mein", "kar", "karna", "karein", "karen", "chahiye", "batao", "bataiye", "bataye",
	"bhai", "ji", "abhi", "aaj", "kal", "parso", "wala", "wali", "lagana", "dalna", "dena", "milega",
	"paani", "pani", "sinchai", "fasal", "kheti", "mausam", "barish", "baarish", "bhav", "bhaav",
	"daam", "keemat", "kimat", "yojana", "yojna", "sarkar", "sarkari", "gehun", "gehu", "chawal",
	"dhaan", "makka", "kapas", "ganna", "sarson", "aloo", "pyaz", "pyaaz", "tamatar", "khad", "beej",
	"keet", "keede", "rog", "bimari", "mitti", "zameen", "khet", "karza", "bima", "katai", "buvai",
	"buai", "dawai", "upaj",
)

// DictEntry is one normalization rule; keys may span several words.
type DictEntry struct {
	From string
	To   string
}

// defaultDictionary is applied in order; earlier entries win.
var defaultDictionary = []DictEntry{
	// multi-word terms
	{"pm kisan", "pm-kisan"},
	{"kisan credit card", "kisan-credit-card"},
	{"fasal bima", "crop insurance"},

	// Devanagari agricultural vocabulary
	{"पानी", "water"},
	{"सिंचाई", "irrigation"},
	{"गेहूं", "wheat"},
	{"गेहूँ", "wheat"},
	{"चावल", "rice"},
	{"धान", "paddy"},
	{"मक्का", "maize"},
	{"कपास", "cotton"},
	{"गन्ना", "sugarcane"},
	{"सरसों", "mustard"},
	{"आलू", "potato"},
	{"प्याज", "onion"},
	{"टमाटर", "tomato"},
	{"चना", "chickpea"},
	{"फसल", "crop"},
	{"खेती", "farming"},
	{"किसान", "farmer"},
	{"खाद", "fertilizer"},
	{"उर्वरक", "fertilizer"},
	{"बीज", "seed"},
	{"कीट", "pest"},
	{"कीड़े", "pests"},
	{"रोग", "disease"},
	{"बीमारी", "disease"},
	{"दवाई", "pesticide"},
	{"मिट्टी", "soil"},
	{"मौसम", "weather"},
	{"बारिश", "rain"},
	{"वर्षा", "rainfall"},
	{"तापमान", "temperature"},
	{"सूखा", "drought"},
	{"बाढ़", "flood"},
	{"कीमत", "price"},
	{"भाव", "price"},
	{"दाम", "price"},
	{"मंडी", "mandi"},
	{"योजना", "scheme"},
	{"सरकारी", "government"},
	{"सरकार", "government"},
	{"सब्सिडी", "subsidy"},
	{"ऋण", "loan"},
	{"लोन", "loan"},
	{"बीमा", "insurance"},
	{"कटाई", "harvesting"},
	{"बुवाई", "sowing"},
	{"छिड़काव", "spraying"},
	{"उपज", "yield"},
	{"आज", "today"},

	// romanized Hindi
	{"paani", "water"},
	{"pani", "water"},
	{"sinchai", "irrigation"},
	{"gehun", "wheat"},
	{"gehu", "wheat"},
	{"chawal", "rice"},
	{"dhaan", "paddy"},
	{"makka", "maize"},
	{"kapas", "cotton"},
	{"ganna", "sugarcane"},
	{"sarson", "mustard"},
	{"aloo", "potato"},
	{"pyaz", "onion"},
	{"pyaaz", "onion"},
	{"tamatar", "tomato"},
	{"fasal", "crop"},
	{"kheti", "farming"},
	{"khad", "fertilizer"},
	{"beej", "seed"},
	{"keet", "pest"},
	{"keede", "pests"},
	{"rog", "disease"},
	{"bimari", "disease"},
	{"dawai", "pesticide"},
	{"mitti", "soil"},
	{"mausam", "weather"},
	{"barish", "rain"},
	{"baarish", "rain"},
	{"bhav", "price"},
	{"bhaav", "price"},
	{"daam", "price"},
	{"keemat", "price"},
	{"kimat", "price"},
	{"yojana", "scheme"},
	{"yojna", "scheme"},
	{"sarkari", "government"},
	{"sarkar", "government"},
	{"karza", "loan"},
	{"bima", "insurance"},
	{"katai", "harvesting"},
	{"buvai", "sowing"},
	{"buai", "sowing"},
	{"upaj", "yield"},

	// chat shorthand and common misspellings
	{"plz", "please"},
	{"pls", "please"},
	{"u", "you"},
	{"ur", "your"},
	{"thx", "thanks"},
	{"wat", "what"},
	{"wht", "what"},
	{"hw", "how"},
	{"abt", "about"},
	{"govt", "government"},
	{"info", "information"},
	{"qtl", "quintal"},
	{"fertiliser", "fertilizer"},
	{"fertilisers", "fertilizers"},
	{"pesticde", "pesticide"},
	{"irigation", "irrigation"},
	{"wheather", "weather"},
	{"temprature", "temperature"},
}

type vocabEntry struct {
	canonical string
	surfaces  []string
}

func v(canonical string, surfaces ...string) vocabEntry {
	return vocabEntry{canonical: canonical, surfaces: append([]string{canonical}, surfaces...)}
}

var cropVocabulary = []vocabEntry{
	v("wheat", "गेहूं", "गेहूँ"),
	v("rice", "चावल"),
	v("paddy", "धान"),
	v("maize", "corn", "मक्का"),
	v("cotton", "कपास"),
	v("sugarcane", "गन्ना"),
	v("soybean", "soyabean", "सोयाबीन"),
	v("mustard", "सरसों"),
	v("potato", "potatoes", "आलू"),
	v("onion", "onions", "प्याज"),
	v("tomato", "tomatoes", "टमाटर"),
	v("chickpea", "gram", "chana", "चना"),
	v("pigeon pea", "tur", "arhar", "अरहर"),
	v("moong", "green gram", "मूंग"),
	v("urad", "black gram", "उड़द"),
	v("lentil", "masoor", "मसूर"),
	v("bajra", "pearl millet", "बाजरा"),
	v("jowar", "sorghum", "ज्वार"),
	v("ragi", "finger millet"),
	v("barley", "जौ"),
	v("groundnut", "peanut", "मूंगफली"),
	v("sunflower"),
	v("chilli", "chili"),
	v("brinjal", "eggplant"),
	v("cauliflower"),
	v("cabbage"),
	v("banana", "bananas"),
	v("mango", "mangoes"),
	v("grapes"),
	v("apple", "apples"),
	v("tea"),
	v("coffee"),
	v("jute"),
	v("turmeric", "हल्दी"),
	v("garlic", "लहसुन"),
	v("ginger"),
	v("cumin", "jeera"),
}

var locationVocabulary = []vocabEntry{
	v("Punjab", "पंजाब"),
	v("Haryana", "हरियाणा"),
	v("Uttar Pradesh", "उत्तर प्रदेश"),
	v("Madhya Pradesh", "मध्य प्रदेश"),
	v("Maharashtra", "महाराष्ट्र"),
	v("Gujarat", "गुजरात"),
	v("Rajasthan", "राजस्थान"),
	v("Bihar", "बिहार"),
	v("West Bengal"),
	v("Odisha", "Orissa"),
	v("Karnataka"),
	v("Tamil Nadu"),
	v("Kerala"),
	v("Andhra Pradesh"),
	v("Telangana"),
	v("Assam"),
	v("Jharkhand"),
	v("Chhattisgarh"),
	v("Himachal Pradesh"),
	v("Uttarakhand"),
	v("Jammu and Kashmir"),
	v("Goa"),
	v("Delhi", "दिल्ली"),
	v("Ludhiana", "लुधियाना"),
	v("Amritsar"),
	v("Jalandhar"),
	v("Patiala"),
	v("Bathinda"),
	v("Karnal"),
	v("Hisar"),
	v("Lucknow", "लखनऊ"),
	v("Kanpur", "कानपुर"),
	v("Agra", "आगरा"),
	v("Varanasi", "वाराणसी"),
	v("Meerut"),
	v("Indore", "इंदौर"),
	v("Bhopal", "भोपाल"),
	v("Jabalpur"),
	v("Pune", "पुणे"),
	v("Nashik", "नासिक"),
	v("Nagpur", "नागपुर"),
	v("Mumbai"),
	v("Ahmedabad"),
	v("Rajkot"),
	v("Surat"),
	v("Jaipur", "जयपुर"),
	v("Jodhpur"),
	v("Kota"),
	v("Patna", "पटना"),
	v("Kolkata"),
	v("Bhubaneswar"),
	v("Bengaluru", "Bangalore"),
	v("Mysuru", "Mysore"),
	v("Chennai"),
	v("Coimbatore"),
	v("Hyderabad"),
	v("Guntur"),
	v("Guwahati"),
	v("Ranchi"),
	v("Raipur"),
	v("Dehradun"),
	v("Shimla"),
	v("Chandigarh"),
	v("Azadpur"),
}

var activityVocabulary = []vocabEntry{
	v("irrigation", "irrigate", "irrigating", "watering", "सिंचाई"),
	v("sowing", "sow", "seeding", "बुवाई"),
	v("planting", "transplanting"),
	v("harvesting", "harvest", "कटाई"),
	v("ploughing", "plowing", "tillage", "जुताई"),
	v("weeding", "निराई"),
	v("spraying", "spray", "छिड़काव"),
	v("fertilization", "fertilizing", "fertilizer application", "top dressing"),
	v("pruning"),
	v("mulching"),
	v("threshing"),
	v("storage"),
	v("seed treatment"),
	v("land preparation"),
	v("crop rotation"),
	v("intercropping"),
	v("composting"),
}

var weatherVocabulary = []vocabEntry{
	v("rain", "rains", "raining", "बारिश"),
	v("rainfall", "वर्षा"),
	v("drought", "dry spell", "सूखा"),
	v("flood", "floods", "flooding", "बाढ़"),
	v("frost", "पाला"),
	v("heat wave", "heatwave", "लू"),
	v("cold wave"),
	v("hailstorm", "hail", "ओला"),
	v("storm", "आंधी"),
	v("cyclone"),
	v("humidity", "नमी"),
	v("temperature", "तापमान"),
	v("monsoon", "मानसून"),
	v("fog", "कोहरा"),
	v("wind", "winds"),
	v("snow"),
}

var dateVocabulary = []vocabEntry{
	v("today", "tonight", "आज"),
	v("tomorrow"),
	v("yesterday"),
	v("kal", "कल"),
	v("day after tomorrow", "parso", "परसों"),
	v("this week", "इस हफ्ते"),
	v("next week", "अगले हफ्ते"),
	v("last week"),
	v("this month"),
	v("next month"),
	v("last month"),
	v("this season"),
	v("next season"),
	v("kharif"),
	v("rabi"),
	v("zaid"),
	v("January"), v("February"), v("March"), v("April"), v("June"),
	v("July"), v("August"), v("September"), v("October"), v("November"), v("December"),
}

func toSet(words ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		out[w] = struct{}{}
	}
	return out
}
