package bmi

type Tips struct {
	Title string   `json:"title"`
	Items []string `json:"items"`
	Note  string   `json:"note"`
}

var tips = map[Category]Tips{
	Underweight: {
		Title: "Healthy Weight Gain Guidelines",
		Items: []string{
			"Consult with a healthcare provider for personalized nutrition advice",
			"Focus on nutrient-dense, calorie-rich foods like nuts, avocados, and lean proteins",
			"Eat frequent, smaller meals throughout the day",
			"Consider strength training to build healthy muscle mass",
		},
		Note: "Being underweight may indicate underlying health conditions that require medical attention.",
	},
	NormalWeight: {
		Title: "Maintaining Your Healthy Weight",
		Items: []string{
			"Continue balanced eating with variety from all food groups",
			"Engage in regular physical activity (150 minutes moderate exercise weekly)",
			"Stay hydrated and get adequate sleep",
			"Schedule regular health screenings and check-ups",
		},
		Note: "You're in the healthy weight range. Keep up the good work!",
	},
	Overweight: {
		Title: "Weight Management Strategies",
		Items: []string{
			"Create a modest caloric deficit through diet and exercise",
			"Focus on whole foods and limit processed items",
			"Incorporate both cardio and resistance training",
			"Consider consulting a registered dietitian for meal planning",
		},
		Note: "Small, sustainable changes are more effective than drastic measures.",
	},
	Obese: {
		Title: "Comprehensive Weight Management",
		Items: []string{
			"Seek guidance from healthcare professionals including doctors and dietitians",
			"Start with low-impact activities and gradually increase intensity",
			"Consider medically supervised weight loss programs",
			"Address any underlying conditions that may contribute to weight gain",
		},
		Note: "Professional medical support is recommended for safe and effective weight management.",
	},
}

// TipsFor returns the advice block for c, or the zero value for an unknown
// category.
func TipsFor(c Category) Tips {
	return tips[c]
}
