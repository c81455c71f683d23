package advisory

import "golang.org/x/text/language"

// template is one (threat, language) entry in the message catalog. Message
// is a printf-style format whose numeric verbs are rendered through a
// locale-aware printer, so digits follow the language's numeral system.
type template struct {
	Title   string
	Message string
	Actions []string
}

// Catalog keys. Factor-driven advisories use the factor type name; urgent
// weather advisories use an "urgent_" prefix so the two views can carry
// different wording for the same metric.
const (
	keyHumidity      = "humidity"
	keyTemperature   = "temperature"
	keyRainfall      = "rainfall"
	keyWind          = "wind"
	keyStorage       = "storage"
	keyHarvestTiming = "harvest_timing"
	keyUrgentRain    = "urgent_rain"
	keyUrgentHeat    = "urgent_heat"
	keyUrgentWind    = "urgent_wind"
	keyUrgentHumid   = "urgent_humidity"
	keyHarvestSoon   = "harvest_reminder"
	keyGeneralRisk   = "general_risk"
)

var englishTemplates = map[string]template{
	keyHumidity: {
		Title:   "High humidity risk",
		Message: "Humidity has reached %.0f%%. Damp air speeds up mold growth in stored grain.",
		Actions: []string{"Ventilate the storage area", "Check stored grain for damp patches", "Avoid opening jute bags in humid hours"},
	},
	keyTemperature: {
		Title:   "Heat stress risk",
		Message: "Temperature has reached %.0f°C. Heat accelerates spoilage and insect activity.",
		Actions: []string{"Shade the storage area", "Ventilate during cooler hours", "Inspect for insect activity"},
	},
	keyRainfall: {
		Title:   "Heavy rainfall risk",
		Message: "Rainfall has reached %.0f mm. Water ingress can ruin stored produce quickly.",
		Actions: []string{"Cover open storage", "Check the roof and floor for leaks", "Move bags off the ground"},
	},
	keyWind: {
		Title:   "Strong wind risk",
		Message: "Wind speed has reached %.0f m/s. Covers and light structures may fail.",
		Actions: []string{"Secure tarpaulins and covers", "Weigh down loose roofing"},
	},
	keyStorage: {
		Title:   "Vulnerable storage method",
		Message: "Your storage method offers limited protection under current weather (risk score %d).",
		Actions: []string{"Consider moving produce to a silo or shed", "Inspect stored produce daily while the weather lasts"},
	},
	keyHarvestTiming: {
		Title:   "Harvest window approaching",
		Message: "Expected harvest is %d day(s) away while weather risk is elevated.",
		Actions: []string{"Plan labor for an earlier harvest if conditions worsen", "Prepare drying and storage space now"},
	},
	keyGeneralRisk: {
		Title:   "Elevated crop risk",
		Message: "Current conditions put your crop at elevated risk (score %d).",
		Actions: []string{"Check your crop and storage today"},
	},
	keyUrgentRain: {
		Title:   "Rain expected",
		Message: "Rain indicator at %.0f. Protect anything drying or stored in the open.",
		Actions: []string{"Cover produce drying outside", "Postpone harvest if it can wait"},
	},
	keyUrgentHeat: {
		Title:   "Heat alert",
		Message: "Temperature at %.0f°C. Crops and workers are under heat stress.",
		Actions: []string{"Irrigate in the evening", "Avoid field work at midday"},
	},
	keyUrgentWind: {
		Title:   "Wind alert",
		Message: "Wind speed at %.0f m/s. Standing crops and covers are at risk.",
		Actions: []string{"Stake or support tall crops", "Secure covers and sheds"},
	},
	keyUrgentHumid: {
		Title:   "Humidity alert",
		Message: "Humidity at %.0f%%. Fungal disease pressure is rising.",
		Actions: []string{"Scout for early signs of blight and mold", "Improve airflow around stored produce"},
	},
	keyHarvestSoon: {
		Title:   "Harvest reminder",
		Message: "Your %s is expected to be ready for harvest in %d day(s).",
		Actions: []string{"Arrange labor and transport", "Prepare storage before harvest day"},
	},
}

var bengaliTemplates = map[string]template{
	keyHumidity: {
		Title:   "উচ্চ আর্দ্রতার ঝুঁকি",
		Message: "আর্দ্রতা %.0f%%-এ পৌঁছেছে। স্যাঁতসেঁতে বাতাসে মজুত শস্যে ছত্রাক দ্রুত ছড়ায়।",
		Actions: []string{"গুদামে বাতাস চলাচলের ব্যবস্থা করুন", "মজুত শস্যে ভেজা অংশ আছে কি না দেখুন", "আর্দ্র সময়ে চটের বস্তা খোলা এড়িয়ে চলুন"},
	},
	keyTemperature: {
		Title:   "তাপের ঝুঁকি",
		Message: "তাপমাত্রা %.0f°সে-এ পৌঁছেছে। গরমে পচন ও পোকার উপদ্রব বাড়ে।",
		Actions: []string{"গুদামে ছায়ার ব্যবস্থা করুন", "ঠান্ডা সময়ে বাতাস চলাচল করান", "পোকার উপদ্রব পরীক্ষা করুন"},
	},
	keyRainfall: {
		Title:   "ভারী বৃষ্টির ঝুঁকি",
		Message: "বৃষ্টিপাত %.0f মিমি-এ পৌঁছেছে। পানি ঢুকলে মজুত ফসল দ্রুত নষ্ট হয়।",
		Actions: []string{"খোলা জায়গার মজুত ঢেকে দিন", "চাল ও মেঝেতে ফুটো আছে কি না দেখুন", "বস্তাগুলো মাটি থেকে উঁচুতে রাখুন"},
	},
	keyWind: {
		Title:   "ঝোড়ো হাওয়ার ঝুঁকি",
		Message: "বাতাসের গতি %.0f মি/সে-এ পৌঁছেছে। ঢাকনা ও হালকা কাঠামো উড়ে যেতে পারে।",
		Actions: []string{"ত্রিপল ও ঢাকনা শক্ত করে বাঁধুন", "আলগা চালা ভারী কিছু দিয়ে চাপা দিন"},
	},
	keyStorage: {
		Title:   "ঝুঁকিপূর্ণ সংরক্ষণ পদ্ধতি",
		Message: "বর্তমান আবহাওয়ায় আপনার সংরক্ষণ পদ্ধতি যথেষ্ট সুরক্ষা দিচ্ছে না (ঝুঁকি স্কোর %d)।",
		Actions: []string{"সম্ভব হলে ফসল সাইলো বা টিনের ঘরে সরান", "খারাপ আবহাওয়া চলাকালীন প্রতিদিন ফসল পরীক্ষা করুন"},
	},
	keyHarvestTiming: {
		Title:   "ফসল কাটার সময় এগিয়ে আসছে",
		Message: "আবহাওয়ার ঝুঁকি বেশি থাকা অবস্থায় ফসল কাটার সম্ভাব্য সময় %d দিন দূরে।",
		Actions: []string{"আবহাওয়া খারাপ হলে আগেই কাটার জন্য লোক ঠিক করুন", "শুকানো ও মজুতের জায়গা এখনই প্রস্তুত করুন"},
	},
	keyGeneralRisk: {
		Title:   "ফসলের ঝুঁকি বেড়েছে",
		Message: "বর্তমান পরিস্থিতিতে আপনার ফসল ঝুঁকিতে আছে (স্কোর %d)।",
		Actions: []string{"আজই ফসল ও গুদাম পরীক্ষা করুন"},
	},
	keyUrgentRain: {
		Title:   "বৃষ্টির সম্ভাবনা",
		Message: "বৃষ্টির সূচক %.0f। খোলা জায়গায় শুকাতে দেওয়া বা রাখা ফসল রক্ষা করুন।",
		Actions: []string{"বাইরে শুকাতে দেওয়া ফসল ঢেকে দিন", "সম্ভব হলে ফসল কাটা পিছিয়ে দিন"},
	},
	keyUrgentHeat: {
		Title:   "তাপপ্রবাহ সতর্কতা",
		Message: "তাপমাত্রা %.0f°সে। ফসল ও শ্রমিক উভয়েই তাপের চাপে আছে।",
		Actions: []string{"সন্ধ্যায় সেচ দিন", "দুপুরে মাঠের কাজ এড়িয়ে চলুন"},
	},
	keyUrgentWind: {
		Title:   "ঝড়ো হাওয়ার সতর্কতা",
		Message: "বাতাসের গতি %.0f মি/সে। দাঁড়ানো ফসল ও ঢাকনা ঝুঁকিতে আছে।",
		Actions: []string{"লম্বা ফসলে খুঁটি বা ঠেকনা দিন", "ঢাকনা ও চালা শক্ত করে বাঁধুন"},
	},
	keyUrgentHumid: {
		Title:   "আর্দ্রতা সতর্কতা",
		Message: "আর্দ্রতা %.0f%%। ছত্রাকজনিত রোগের চাপ বাড়ছে।",
		Actions: []string{"ব্লাইট ও ছত্রাকের প্রাথমিক লক্ষণ খুঁজুন", "মজুত ফসলের চারপাশে বাতাস চলাচল বাড়ান"},
	},
	keyHarvestSoon: {
		Title:   "ফসল কাটার স্মরণিকা",
		Message: "আপনার %s আনুমানিক %d দিনের মধ্যে কাটার উপযুক্ত হবে।",
		Actions: []string{"লোকবল ও পরিবহনের ব্যবস্থা করুন", "কাটার আগে মজুতের জায়গা প্রস্তুত রাখুন"},
	},
}

// lookup returns the template for the key in the closest supported
// language, falling back to English for unknown languages or keys.
func lookup(lang language.Tag, key string) template {
	templates := englishTemplates
	if base, _ := lang.Base(); base.String() == "bn" {
		templates = bengaliTemplates
	}
	if tpl, ok := templates[key]; ok {
		return tpl
	}
	return englishTemplates[keyGeneralRisk]
}
