package safety

import "strings"

// EscalationMessage 命中危险征兆时的固定回复（印尼语）
// 不安抚、不给居家处理建议，直接引导立即就医
const EscalationMessage = `Gejala yang Bunda sebutkan termasuk TANDA BAHAYA kehamilan. Jangan menunggu dan jangan mencoba perawatan di rumah. Segera hubungi bidan, dokter, atau datang ke fasilitas kesehatan terdekat SEKARANG. Jika tidak memungkinkan pergi sendiri, minta bantuan keluarga atau tetangga untuk mengantar.`

// dangerPhrases 已知危险征兆的印尼语关键词
// 覆盖：大出血、破水、早期强烈宫缩、胎动消失、剧烈头痛/视物模糊（子痫前兆）、高热、抽搐
var dangerPhrases = []string{
	"pendarahan hebat",
	"perdarahan hebat",
	"pendarahan banyak",
	"keluar darah banyak",
	"air ketuban pecah",
	"ketuban pecah dini",
	"kontraksi hebat",
	"kontraksi kuat",
	"mulas hebat",
	"gerakan janin berkurang",
	"gerakan janin tidak terasa",
	"janin tidak bergerak",
	"tidak merasakan gerakan",
	"sakit kepala hebat",
	"pandangan kabur",
	"demam tinggi",
	"kejang",
}

// DetectDangerSign 检查文本是否包含危险征兆关键词，返回命中的短语
func DetectDangerSign(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range dangerPhrases {
		if strings.Contains(lower, phrase) {
			return phrase, true
		}
	}
	return "", false
}
