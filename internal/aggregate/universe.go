package aggregate

// Company is a ticker with its display name.
type Company struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
}

// BuybackUniverse is the default ticker list for the buyback table.
var BuybackUniverse = []Company{
	{Ticker: "AIG", Name: "American International Group"},
	{Ticker: "ALL", Name: "The Allstate Corporation"},
	{Ticker: "ACGL", Name: "Arch Capital Group"},
	{Ticker: "AXS", Name: "AXIS Capital Holdings"},
	{Ticker: "CB", Name: "Chubb Limited"},
	{Ticker: "CS.PA", Name: "AXA SA"},
	{Ticker: "CINF", Name: "Cincinnati Financial Corporation"},
	{Ticker: "EG", Name: "Everest Group"},
	{Ticker: "EIG", Name: "Employers Holdings"},
	{Ticker: "HNR1.DE", Name: "Hannover Rück SE"},
	{Ticker: "HCI", Name: "HCI Group"},
	{Ticker: "HRTG", Name: "Heritage Insurance Holdings"},
	{Ticker: "HIG", Name: "The Hartford Financial Services Group"},
	{Ticker: "HSX.L", Name: "Hiscox Ltd"},
	{Ticker: "IFC.TO", Name: "Intact Financial Corporation"},
	{Ticker: "JRVR", Name: "James River Group Holdings"},
	{Ticker: "KMPR", Name: "Kemper Corporation"},
	{Ticker: "KNSL", Name: "Kinsale Capital Group"},
	{Ticker: "LRE.L", Name: "Lancashire Holdings"},
	{Ticker: "MCY", Name: "Mercury General Corporation"},
	{Ticker: "MKL", Name: "Markel Group"},
	{Ticker: "MUV2.DE", Name: "Munich Re"},
	{Ticker: "ALV.DE", Name: "Allianz SE"},
	{Ticker: "MAP.MC", Name: "Mapfre, S.A."},
	{Ticker: "ORI", Name: "Old Republic International Corporation"},
	{Ticker: "PGR", Name: "The Progressive Corporation"},
	{Ticker: "PLMR", Name: "Palomar Holdings"},
	{Ticker: "QBE.AX", Name: "QBE Insurance Group"},
	{Ticker: "RLI", Name: "RLI Corp."},
	{Ticker: "RNR", Name: "RenaissanceRe Holdings"},
	{Ticker: "SCR.PA", Name: "SCOR SE"},
	{Ticker: "SAFT", Name: "Safety Insurance Group"},
	{Ticker: "SKWD", Name: "Skyward Specialty Insurance Group"},
	{Ticker: "SIGI", Name: "Selective Insurance Group"},
	{Ticker: "THG", Name: "The Hanover Insurance Group"},
	{Ticker: "TRV", Name: "The Travelers Companies"},
	{Ticker: "SREN.SW", Name: "Swiss Re AG"},
	{Ticker: "UFCS", Name: "United Fire Group"},
	{Ticker: "UVE", Name: "Universal Insurance Holdings"},
	{Ticker: "WRB", Name: "W. R. Berkley Corporation"},
	{Ticker: "WTM", Name: "White Mountains Insurance Group"},
	{Ticker: "ZURN.SW", Name: "Zurich Insurance Group"},
	{Ticker: "BOW", Name: "Bowhead Specialty Holdings Inc."},
	{Ticker: "AFG", Name: "American Financial Group"},
	{Ticker: "AMSF", Name: "AMERISAFE, Inc."},
	{Ticker: "AIZ", Name: "Assurant, Inc."},
	{Ticker: "CNA", Name: "CNA Financial Corporation"},
	{Ticker: "HMN", Name: "Horace Mann Educators Corporation"},
	{Ticker: "LMND", Name: "Lemonade, Inc."},
	{Ticker: "FIHL", Name: "Fidelis Insurance Holdings"},
	{Ticker: "GLRE", Name: "Greenlight Capital Re"},
	{Ticker: "IGIC", Name: "International General Insurance Holdings"},
	{Ticker: "GBLI", Name: "Global Indemnity Group"},
	{Ticker: "HG", Name: "Hamilton Insurance Group"},
	{Ticker: "BRK-B", Name: "Berkshire Hathaway Inc."},
}

// DashboardUniverse is the company list shown on the market dashboard.
var DashboardUniverse = []Company{
	{Ticker: "AIG", Name: "American International Group"},
	{Ticker: "AIZ", Name: "Assurant, Inc."},
	{Ticker: "ALL", Name: "The Allstate Corporation"},
	{Ticker: "ACGL", Name: "Arch Capital Group"},
	{Ticker: "AMSF", Name: "AMERISAFE, Inc."},
	{Ticker: "AXS", Name: "AXIS Capital Holdings"},
	{Ticker: "CB", Name: "Chubb Limited"},
	{Ticker: "CS.PA", Name: "AXA SA"},
	{Ticker: "CINF", Name: "Cincinnati Financial Corporation"},
	{Ticker: "EG", Name: "Everest Group"},
	{Ticker: "EIG", Name: "Employers Holdings"},
	{Ticker: "FFH.TO", Name: "Fairfax Financial Holdings Limited"},
	{Ticker: "FIHL", Name: "Fidelis Insurance Holdings Limited"},
	{Ticker: "HNR1.DE", Name: "Hannover Rück SE"},
	{Ticker: "HCI", Name: "HCI Group"},
	{Ticker: "HG", Name: "Hamilton Insurance Group"},
	{Ticker: "HIPO", Name: "Hippo Holdings Inc."},
	{Ticker: "HRTG", Name: "Heritage Insurance Holdings"},
	{Ticker: "HIG", Name: "The Hartford Financial Services Group"},
	{Ticker: "HSX.L", Name: "Hiscox Ltd"},
	{Ticker: "IFC.TO", Name: "Intact Financial Corporation"},
	{Ticker: "JRVR", Name: "James River Group Holdings"},
	{Ticker: "KMPR", Name: "Kemper Corporation"},
	{Ticker: "KNSL", Name: "Kinsale Capital Group"},
	{Ticker: "LRE.L", Name: "Lancashire Holdings"},
	{Ticker: "LMND", Name: "Lemonade, Inc."},
	{Ticker: "MCY", Name: "Mercury General Corporation"},
	{Ticker: "MKL", Name: "Markel Group"},
	{Ticker: "MUV2.DE", Name: "Munich Re"},
	{Ticker: "ALV.DE", Name: "Allianz SE"},
	{Ticker: "MAP.MC", Name: "Mapfre, S.A."},
	{Ticker: "ORI", Name: "Old Republic International Corporation"},
	{Ticker: "PGR", Name: "The Progressive Corporation"},
	{Ticker: "PLMR", Name: "Palomar Holdings"},
	{Ticker: "QBE.AX", Name: "QBE Insurance Group"},
	{Ticker: "RLI", Name: "RLI Corp."},
	{Ticker: "RNR", Name: "RenaissanceRe Holdings"},
	{Ticker: "ROOT", Name: "Root, Inc."},
	{Ticker: "SCR.PA", Name: "SCOR SE"},
	{Ticker: "SAFT", Name: "Safety Insurance Group"},
	{Ticker: "SKWD", Name: "Skyward Specialty Insurance Group"},
	{Ticker: "SIGI", Name: "Selective Insurance Group"},
	{Ticker: "THG", Name: "The Hanover Insurance Group"},
	{Ticker: "TRV", Name: "The Travelers Companies"},
	{Ticker: "SREN.SW", Name: "Swiss Re AG"},
	{Ticker: "UFCS", Name: "United Fire Group"},
	{Ticker: "UVE", Name: "Universal Insurance Holdings"},
	{Ticker: "UIHC", Name: "United Insurance Holdings"},
	{Ticker: "WRB", Name: "W. R. Berkley Corporation"},
	{Ticker: "WTM", Name: "White Mountains Insurance Group"},
	{Ticker: "ZURN.SW", Name: "Zurich Insurance Group"},
	{Ticker: "BEZ.L", Name: "Beazley plc"},
	{Ticker: "BOW", Name: "Bowhead Specialty Holdings"},
}

// DashboardBenchmarks are reported beside the universe, not in it.
var DashboardBenchmarks = []Company{
	{Ticker: "BRK-B", Name: "Berkshire Hathaway Inc."},
	{Ticker: "^GSPC", Name: "S&P 500"},
}

// Tickers lists the tickers of companies in order.
func Tickers(companies []Company) []string {
	out := make([]string, len(companies))
	for i, c := range companies {
		out[i] = c.Ticker
	}
	return out
}

// nameIndex maps ticker to display name.
func nameIndex(lists ...[]Company) map[string]string {
	out := make(map[string]string)
	for _, l := range lists {
		for _, c := range l {
			if _, ok := out[c.Ticker]; !ok {
				out[c.Ticker] = c.Name
			}
		}
	}
	return out
}
