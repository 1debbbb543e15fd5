package domain

// ActiMissRecord is a row of the Actigraph miss file
type ActiMissRecord struct {
	ID     string  `csv:"ID" json:"id"`
	NoWear float64 `csv:"ActiAC-No-Wear [%]" json:"no_wear_pct"`
}

// WatchMissRecord is a row of the smartwatch miss file
type WatchMissRecord struct {
	ID           string  `csv:"ID" json:"id"`
	NoWear       float64 `csv:"Watch-No-Wear [%]" json:"no_wear_pct"`
	BothNoWear   float64 `csv:"Both-No-Wear [%]" json:"both_no_wear_pct"`
	SingleNoWear float64 `csv:"Single-No-Wear [%]" json:"single_no_wear_pct"`
}

// CoreMissRecord is a row of the CORE miss file
type CoreMissRecord struct {
	ID     string  `csv:"ID" json:"id"`
	NoWear float64 `csv:"Core-No-Wear [%]" json:"no_wear_pct"`
}

// ACComparison summarises agreement between the two activity count series
// of one participant.
type ACComparison struct {
	ID             string  `csv:"ID" json:"id"`
	MAE            float64 `csv:"MAE" json:"mae"`
	RMSE           float64 `csv:"RMSE" json:"rmse"`
	MeanDifference float64 `csv:"Mean Difference" json:"mean_difference"`
	LoA            string  `csv:"LoA" json:"loa"`
	TStatistic     float64 `csv:"t-statistic" json:"t_statistic"`
	TPValue        float64 `csv:"p-value [t]" json:"t_p_value"`
	Correlation    float64 `csv:"Correlation coefficient" json:"correlation"`
	CorrPValue     float64 `csv:"p-value [corr]" json:"corr_p_value"`
	Slope          float64 `csv:"Slope" json:"slope"`
	Intercept      float64 `csv:"Intercept" json:"intercept"`
	RSquared       float64 `csv:"R2" json:"r_squared"`
}

// RMCorr is the repeated measures correlation across participants
type RMCorr struct {
	R        float64 `csv:"r" json:"r"`
	DOF      int     `csv:"dof" json:"dof"`
	PValue   float64 `csv:"pval" json:"p_value"`
	CILower  float64 `csv:"CI95% lower" json:"ci_lower"`
	CIUpper  float64 `csv:"CI95% upper" json:"ci_upper"`
	Subjects int     `csv:"subjects" json:"subjects"`
}

// HRActivityCorr is the per-participant heart rate against activity correlation
type HRActivityCorr struct {
	ID          string  `csv:"ID" json:"id"`
	N           int     `csv:"n" json:"n"`
	Correlation float64 `csv:"Correlation coefficient" json:"correlation"`
	PValue      float64 `csv:"p-value [corr]" json:"p_value"`
}

// CosinorFit is a single component cosinor model for one measurement
type CosinorFit struct {
	ID            string  `csv:"ID" json:"id,omitempty"`
	Test          string  `csv:"test" json:"test"`
	Period        float64 `csv:"period" json:"period"`
	NComponents   int     `csv:"n_components" json:"n_components"`
	P             float64 `csv:"p" json:"p"`
	Q             float64 `csv:"q" json:"q"`
	RSS           float64 `csv:"RSS" json:"rss"`
	R2            float64 `csv:"R2" json:"r2"`
	R2Adj         float64 `csv:"R2_adj" json:"r2_adj"`
	LogLikelihood float64 `csv:"log-likelihood" json:"log_likelihood"`
	Amplitude     float64 `csv:"amplitude" json:"amplitude"`
	Acrophase     float64 `csv:"acrophase" json:"acrophase"`
	Mesor         float64 `csv:"mesor" json:"mesor"`
	Peak          float64 `csv:"peaks" json:"peak"`
	PeakHeight    float64 `csv:"heights" json:"peak_height"`
	Trough        float64 `csv:"troughs" json:"trough"`
	TroughHeight  float64 `csv:"heights2" json:"trough_height"`
	Time          float64 `csv:"time" json:"time"`
	Hour          string  `csv:"hour" json:"hour"`
	N             int     `csv:"n" json:"n"`
}

// CosinorPairComparison tests two labelled series for rhythm differences
type CosinorPairComparison struct {
	Test        string  `csv:"test" json:"test"`
	Amplitude1  float64 `csv:"amplitude1" json:"amplitude1"`
	Amplitude2  float64 `csv:"amplitude2" json:"amplitude2"`
	DAmplitude  float64 `csv:"d_amplitude" json:"d_amplitude"`
	PDAmplitude float64 `csv:"p(d_amplitude)" json:"p_d_amplitude"`
	Acrophase1  float64 `csv:"acrophase1" json:"acrophase1"`
	Acrophase2  float64 `csv:"acrophase2" json:"acrophase2"`
	DAcrophase  float64 `csv:"d_acrophase" json:"d_acrophase"`
	PDAcrophase float64 `csv:"p(d_acrophase)" json:"p_d_acrophase"`
	Mesor1      float64 `csv:"mesor1" json:"mesor1"`
	Mesor2      float64 `csv:"mesor2" json:"mesor2"`
	DMesor      float64 `csv:"d_mesor" json:"d_mesor"`
	PDMesor     float64 `csv:"p(d_mesor)" json:"p_d_mesor"`
	FStatistic  float64 `csv:"F" json:"f"`
	PRhythm     float64 `csv:"p(F)" json:"p_rhythm"`
}

// NonParametric holds the non-parametric rhythm metrics of one measurement
type NonParametric struct {
	ID          string  `csv:"ID" json:"id"`
	Measurement string  `csv:"Measurement" json:"measurement"`
	IS          float64 `csv:"IS" json:"is"`
	IV          float64 `csv:"IV" json:"iv"`
	M10         float64 `csv:"M10" json:"m10"`
	L5          float64 `csv:"L5" json:"l5"`
	RA          float64 `csv:"RA" json:"ra"`
}

// CRComparison compares one rhythm metric of a sensor with the reference
type CRComparison struct {
	Metric        string  `csv:"CR Metrics" json:"metric"`
	Sensor        string  `csv:"Sensor" json:"sensor"`
	N             int     `csv:"n" json:"n"`
	MeanSDRef     string  `csv:"Mean (SD) (ref)" json:"mean_sd_ref"`
	MeanSDTest    string  `csv:"Mean (SD) (test)" json:"mean_sd_test"`
	MedianIQRRef  string  `csv:"Median (IQR) (ref)" json:"median_iqr_ref"`
	MedianIQRTest string  `csv:"Median (IQR) (test)" json:"median_iqr_test"`
	MAE           float64 `csv:"MAE" json:"mae"`
	RMSE          float64 `csv:"RMSE" json:"rmse"`
	WStatistic    float64 `csv:"W-statistic" json:"w_statistic"`
	WPValue       float64 `csv:"p-value [W]" json:"w_p_value"`
	Correlation   float64 `csv:"Correlation coefficient" json:"correlation"`
	CorrPValue    float64 `csv:"p-value (corr)" json:"corr_p_value"`
}

// MEQCorrelation is the correlation between a rhythm metric and MEQ score
type MEQCorrelation struct {
	Metric      string  `csv:"CR Metrics" json:"metric"`
	Sensor      string  `csv:"Sensor" json:"sensor"`
	N           int     `csv:"n" json:"n"`
	Correlation float64 `csv:"Correlation coefficient" json:"correlation"`
	PValue      float64 `csv:"p-value (corr)" json:"p_value"`
}

// GroupComparison tests acrophase time across chronotype groups
type GroupComparison struct {
	Sensor   string  `csv:"Sensor" json:"sensor"`
	H        float64 `csv:"Kruskal-Wallis test" json:"h"`
	PKruskal float64 `csv:"p-value (H)" json:"p_kruskal"`
	ZEI      float64 `csv:"Wilcoxon rank-sum test (EI)" json:"z_ei"`
	PEI      float64 `csv:"p-value (EI)" json:"p_ei"`
	ZIM      float64 `csv:"Wilcoxon rank-sum test (IM)" json:"z_im"`
	PIM      float64 `csv:"p-value (IM)" json:"p_im"`
	ZEM      float64 `csv:"Wilcoxon rank-sum test (EM)" json:"z_em"`
	PEM      float64 `csv:"p-value (EM)" json:"p_em"`
	Levene   float64 `csv:"Levene" json:"levene"`
	PLevene  float64 `csv:"p-value (Levene)" json:"p_levene"`
}

// GroupDescriptive summarises one chronotype group
type GroupDescriptive struct {
	Group      string  `csv:"Group" json:"group"`
	Sensor     string  `csv:"Sensor" json:"sensor"`
	N          int     `csv:"n" json:"n"`
	MedianTime float64 `csv:"Median acrophase [h]" json:"median_time"`
	IQRTime    float64 `csv:"IQR acrophase [h]" json:"iqr_time"`
	MeanAge    float64 `csv:"Mean age" json:"mean_age"`
	SDAge      float64 `csv:"SD age" json:"sd_age"`
	MeanMEQ    float64 `csv:"Mean MEQ" json:"mean_meq"`
	SDMEQ      float64 `csv:"SD MEQ" json:"sd_meq"`
	Female     float64 `csv:"Female [%]" json:"female_pct"`
}

// MEQScore is a chronotype questionnaire result
type MEQScore struct {
	ID    string  `csv:"ID" json:"id"`
	Score float64 `csv:"MEQ" json:"score"`
}

// Demographic describes one participant
type Demographic struct {
	ID     string  `csv:"ID" json:"id"`
	Age    float64 `csv:"Age" json:"age"`
	Gender string  `csv:"Gender" json:"gender"`
}

// IsFemale accepts the usual encodings of the gender column
func (d Demographic) IsFemale() bool {
	switch d.Gender {
	case "F", "f", "female", "Female", "2", "w", "W":
		return true
	}
	return false
}
