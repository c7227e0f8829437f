package games

type Country struct {
	Flag string
	Name string
}

var Countries = []Country{
	{"🇺🇸", "United States"},
	{"🇬🇧", "United Kingdom"},
	{"🇨🇦", "Canada"},
	{"🇦🇺", "Australia"},
	{"🇩🇪", "Germany"},
	{"🇫🇷", "France"},
	{"🇮🇹", "Italy"},
	{"🇪🇸", "Spain"},
	{"🇯🇵", "Japan"},
	{"🇰🇷", "South Korea"},
	{"🇨🇳", "China"},
	{"🇧🇷", "Brazil"},
	{"🇲🇽", "Mexico"},
	{"🇦🇷", "Argentina"},
	{"🇮🇳", "India"},
	{"🇷🇺", "Russia"},
	{"🇿🇦", "South Africa"},
	{"🇪🇬", "Egypt"},
	{"🇳🇬", "Nigeria"},
	{"🇰🇪", "Kenya"},
	{"🇸🇪", "Sweden"},
	{"🇳🇴", "Norway"},
	{"🇩🇰", "Denmark"},
	{"🇫🇮", "Finland"},
	{"🇳🇱", "Netherlands"},
	{"🇧🇪", "Belgium"},
	{"🇨🇭", "Switzerland"},
	{"🇦🇹", "Austria"},
	{"🇵🇱", "Poland"},
	{"🇨🇿", "Czech Republic"},
	{"🇭🇺", "Hungary"},
	{"🇬🇷", "Greece"},
	{"🇹🇷", "Turkey"},
	{"🇮🇪", "Ireland"},
	{"🇵🇹", "Portugal"},
	{"🇮🇸", "Iceland"},
	{"🇱🇺", "Luxembourg"},
	{"🇲🇹", "Malta"},
	{"🇨🇾", "Cyprus"},
	{"🇧🇬", "Bulgaria"},
	{"🇷🇴", "Romania"},
	{"🇭🇷", "Croatia"},
	{"🇸🇮", "Slovenia"},
	{"🇸🇰", "Slovakia"},
	{"🇪🇪", "Estonia"},
	{"🇱🇻", "Latvia"},
	{"🇱🇹", "Lithuania"},
	{"🇺🇦", "Ukraine"},
	{"🇧🇾", "Belarus"},
	{"🇲🇩", "Moldova"},
	{"🇷🇸", "Serbia"},
	{"🇧🇦", "Bosnia and Herzegovina"},
	{"🇲🇪", "Montenegro"},
	{"🇲🇰", "North Macedonia"},
	{"🇦🇱", "Albania"},
	{"🇽🇰", "Kosovo"},
	{"🇮🇱", "Israel"},
	{"🇯🇴", "Jordan"},
	{"🇱🇧", "Lebanon"},
	{"🇸🇾", "Syria"},
	{"🇮🇶", "Iraq"},
	{"🇮🇷", "Iran"},
	{"🇸🇦", "Saudi Arabia"},
	{"🇦🇪", "UAE"},
	{"🇰🇼", "Kuwait"},
	{"🇶🇦", "Qatar"},
	{"🇧🇭", "Bahrain"},
	{"🇴🇲", "Oman"},
	{"🇾🇪", "Yemen"},
	{"🇦🇫", "Afghanistan"},
	{"🇵🇰", "Pakistan"},
	{"🇧🇩", "Bangladesh"},
	{"🇱🇰", "Sri Lanka"},
	{"🇳🇵", "Nepal"},
	{"🇧🇹", "Bhutan"},
	{"🇲🇻", "Maldives"},
	{"🇹🇭", "Thailand"},
	{"🇻🇳", "Vietnam"},
	{"🇰🇭", "Cambodia"},
	{"🇱🇦", "Laos"},
	{"🇲🇾", "Malaysia"},
	{"🇸🇬", "Singapore"},
	{"🇮🇩", "Indonesia"},
	{"🇵🇭", "Philippines"},
	{"🇧🇳", "Brunei"},
	{"🇹🇱", "East Timor"},
	{"🇲🇳", "Mongolia"},
	{"🇰🇿", "Kazakhstan"},
	{"🇺🇿", "Uzbekistan"},
	{"🇰🇬", "Kyrgyzstan"},
	{"🇹🇯", "Tajikistan"},
	{"🇹🇲", "Turkmenistan"},
	{"🇬🇪", "Georgia"},
	{"🇦🇲", "Armenia"},
	{"🇦🇿", "Azerbaijan"},
	{"🇲🇦", "Morocco"},
	{"🇹🇳", "Tunisia"},
	{"🇩🇿", "Algeria"},
	{"🇱🇾", "Libya"},
	{"🇸🇩", "Sudan"},
	{"🇪🇭", "Western Sahara"},
	{"🇲🇷", "Mauritania"},
	{"🇲🇱", "Mali"},
	{"🇧🇫", "Burkina Faso"},
	{"🇳🇪", "Niger"},
	{"🇹🇩", "Chad"},
	{"🇸🇳", "Senegal"},
	{"🇬🇲", "Gambia"},
	{"🇬🇼", "Guinea-Bissau"},
	{"🇬🇳", "Guinea"},
	{"🇸🇱", "Sierra Leone"},
	{"🇱🇷", "Liberia"},
	{"🇨🇮", "Ivory Coast"},
	{"🇬🇭", "Ghana"},
	{"🇹🇬", "Togo"},
	{"🇧🇯", "Benin"},
	{"🇨🇲", "Cameroon"},
	{"🇨🇫", "Central African Republic"},
	{"🇸🇸", "South Sudan"},
	{"🇪🇹", "Ethiopia"},
	{"🇪🇷", "Eritrea"},
	{"🇩🇯", "Djibouti"},
	{"🇸🇴", "Somalia"},
	{"🇺🇬", "Uganda"},
	{"🇷🇼", "Rwanda"},
	{"🇧🇮", "Burundi"},
	{"🇹🇿", "Tanzania"},
	{"🇲🇼", "Malawi"},
	{"🇿🇲", "Zambia"},
	{"🇿🇼", "Zimbabwe"},
	{"🇧🇼", "Botswana"},
	{"🇳🇦", "Namibia"},
	{"🇱🇸", "Lesotho"},
	{"🇸🇿", "Eswatini"},
	{"🇲🇬", "Madagascar"},
	{"🇲🇺", "Mauritius"},
	{"🇸🇨", "Seychelles"},
	{"🇰🇲", "Comoros"},
	{"🇨🇻", "Cape Verde"},
	{"🇸🇹", "Sao Tome and Principe"},
	{"🇬🇶", "Equatorial Guinea"},
	{"🇬🇦", "Gabon"},
	{"🇨🇬", "Republic of the Congo"},
	{"🇨🇩", "Democratic Republic of the Congo"},
	{"🇦🇴", "Angola"},
	{"🇧🇲", "Bermuda"},
	{"🇵🇷", "Puerto Rico"},
}

var ScrambleWords = []string{
	"algorithm", "computer", "keyboard", "monitor", "software", "hardware", "network", "internet",
	"database", "programming", "javascript", "python", "discord", "gaming", "streaming", "challenge",
	"adventure", "treasure", "mystery", "fantasy", "rainbow", "butterfly", "elephant", "dolphin",
	"mountain", "ocean", "forest", "desert", "volcano", "galaxy", "planet", "asteroid", "comet",
	"telescope", "microscope", "laboratory", "experiment", "discovery", "invention", "creativity",
	"imagination", "inspiration", "motivation", "determination", "achievement", "success", "victory",
	"friendship", "kindness", "happiness", "celebration", "festival", "carnival", "fireworks",
	"chocolate", "strawberry", "pineapple", "watermelon", "hamburger", "sandwich", "restaurant",
	"university", "library", "museum", "theater", "concert", "orchestra", "symphony", "melody",
	"harmony", "rhythm", "photography", "painting", "sculpture", "architecture", "literature",
}

var WordBombSequences = []string{
	"ing", "tion", "ent", "er", "ly", "ed", "al", "an", "re", "th", "in", "on", "at", "st", "nd",
	"ch", "sh", "ck", "ll", "ss", "ff", "pp", "tt", "dd", "mm", "nn", "rr", "bb", "gg", "zz", "ough",
	"ight", "ould", "ance", "ence", "able", "ible", "ment", "ness", "less", "ful", "ous",
}
