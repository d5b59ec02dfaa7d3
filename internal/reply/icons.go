package reply

import "strings"

type Icon string

const DefaultIcon Icon = "🌤️"

type iconRule struct {
	keywords []string
	icon     Icon
}

// iconRules is matched top to bottom; the first rule with a keyword contained
// in the description wins. Keywords are lower case.
var iconRules = []iconRule{
	{keywords: []string{"clear", "ясно"}, icon: "☀️"},
	{keywords: []string{"cloud", "overcast", "облач", "пасмурн"}, icon: "☁️"},
	{keywords: []string{"rain", "drizzle", "дожд", "ливень", "морось"}, icon: "🌧️"},
	{keywords: []string{"storm", "thunder", "гроз"}, icon: "⛈️"},
	{keywords: []string{"snow", "sleet", "снег"}, icon: "❄️"},
	{keywords: []string{"fog", "mist", "haze", "туман", "дымка", "мгла"}, icon: "🌫️"},
	{keywords: []string{"wind", "ветер", "ветрено"}, icon: "💨"},
}

// SelectIcon picks the icon for a weather description, case-insensitively.
// It returns DefaultIcon when nothing matches.
func SelectIcon(description string) Icon {
	d := strings.ToLower(description)
	for _, rule := range iconRules {
		for _, kw := range rule.keywords {
			if strings.Contains(d, kw) {
				return rule.icon
			}
		}
	}
	return DefaultIcon
}
