package location

import "strings"

// Reference tables for location normalization. Facility location fields are
// free-text admin input, so the same region arrives as codes, full names,
// aliases, or strings polluted with country names and postal codes.

var usStateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"FL": "Florida", "GA": "Georgia", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota", "MS": "Mississippi",
	"MO": "Missouri", "MT": "Montana", "NE": "Nebraska", "NV": "Nevada",
	"NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico", "NY": "New York",
	"NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio", "OK": "Oklahoma",
	"OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VA": "Virginia", "WA": "Washington", "WV": "West Virginia",
	"WI": "Wisconsin", "WY": "Wyoming", "DC": "District of Columbia",
}

var usStateNameToCode = func() map[string]string {
	m := make(map[string]string, len(usStateNames))
	for code, name := range usStateNames {
		m[collapseUpper(name)] = code
	}
	return m
}()

// countryNames covers the regions the directory actually lists; codes not
// present here still format via the title-case fallback.
var countryNames = map[string]string{
	"US": "United States", "CA": "Canada", "MX": "Mexico",
	"CN": "China", "TW": "Taiwan", "JP": "Japan", "KR": "South Korea",
	"IN": "India", "VN": "Vietnam", "TH": "Thailand", "MY": "Malaysia",
	"SG": "Singapore", "PH": "Philippines", "HK": "Hong Kong",
	"DE": "Germany", "GB": "United Kingdom", "FR": "France", "IT": "Italy",
	"PL": "Poland", "CZ": "Czech Republic", "HU": "Hungary", "RO": "Romania",
	"IE": "Ireland", "KP": "North Korea", "MO": "Macao", "NA": "Namibia",
}

var countryNameToCode = func() map[string]string {
	m := make(map[string]string, len(countryNames))
	for code, name := range countryNames {
		m[collapseUpper(name)] = code
	}
	return m
}()

// Non-standard aliases and special cases; official country names resolve
// through countryNameToCode.
var countryAliases = map[string]string{
	"USA":                        "US",
	"UNITED STATES OF AMERICA":   "US",
	"US":                         "US",
	"UK":                         "GB",
	"GREAT BRITAIN":              "GB",
	"ENGLAND":                    "GB",
	"SCOTLAND":                   "GB",
	"WALES":                      "GB",
	"NORTHERN IRELAND":           "GB",
	"REPUBLIC OF IRELAND":        "IE",
	"IRELAND":                    "IE",
	"REPUBLIC OF CHINA":          "TW",
	"PEOPLE'S REPUBLIC OF CHINA": "CN",
	"KOREA":                      "KR",
	"NORTH KOREA":                "KP",
	"HONGKONG":                   "HK",
	"HONG KONG":                  "HK",
	"HONG KONG SAR":              "HK",
	"MACAU":                      "MO",
	"MACAO":                      "MO",
	"NAMIBIA":                    "NA",
}

var iso3ToISO2 = map[string]string{
	"USA": "US", "CAN": "CA", "MEX": "MX", "GBR": "GB", "CHN": "CN",
	"TWN": "TW", "DEU": "DE", "FRA": "FR", "ITA": "IT", "JPN": "JP",
	"KOR": "KR", "IND": "IN", "VNM": "VN", "SGP": "SG", "MYS": "MY",
}

// extraRegionNames maps non-US region keys facets group under to display
// labels: Canadian provinces, US territories, UK constituent regions.
var extraRegionNames = map[string]string{
	"ON": "Ontario", "QC": "Quebec", "BC": "British Columbia", "AB": "Alberta",
	"MB": "Manitoba", "SK": "Saskatchewan", "NB": "New Brunswick",
	"NL": "Newfoundland and Labrador", "NS": "Nova Scotia",
	"PE": "Prince Edward Island", "YT": "Yukon", "NT": "Northwest Territories",
	"NU": "Nunavut",
	"MP": "Northern Mariana Islands", "GU": "Guam", "VI": "U.S. Virgin Islands",
	"AS": "American Samoa", "PR": "Puerto Rico",
	"NORTH YORKSHIRE": "North Yorkshire", "YORKSHIRE": "Yorkshire",
	"GREATER LONDON": "Greater London", "LONDON": "London",
	"ENGLAND": "England", "SCOTLAND": "Scotland", "WALES": "Wales",
	"NORTHERN IRELAND": "Northern Ireland",
}

var extraRegionNameToCode = func() map[string]string {
	m := make(map[string]string, len(extraRegionNames))
	for code, name := range extraRegionNames {
		m[strings.ToLower(name)] = code
	}
	return m
}()

var extraRegionCountry = map[string]string{
	"ON": "CA", "QC": "CA", "BC": "CA", "AB": "CA", "MB": "CA", "SK": "CA",
	"NB": "CA", "NL": "CA", "NS": "CA", "PE": "CA", "YT": "CA", "NT": "CA",
	"NU": "CA",
	"MP": "US", "GU": "US", "VI": "US", "AS": "US", "PR": "US",
	"NORTH YORKSHIRE": "GB", "YORKSHIRE": "GB", "GREATER LONDON": "GB",
	"LONDON": "GB", "ENGLAND": "GB", "SCOTLAND": "GB", "WALES": "GB",
	"NORTHERN IRELAND": "GB",
}

// trailing tokens stripped from state strings before matching
var countryNameTokens = []string{
	"united states of america",
	"people's republic of china",
	"republic of ireland",
	"republic of china",
	"northern ireland",
	"united kingdom",
	"united states",
	"great britain",
	"hong kong sar",
	"south korea",
	"north korea",
	"hong kong",
	"scotland",
	"england",
	"ireland",
	"namibia",
	"taiwan",
	"wales",
	"macau",
	"macao",
	"usa",
	"uk",
	"gb",
}
