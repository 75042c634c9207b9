package radius

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Attribute один фрагмент строки radreply: имя атрибута, оператор, значение.
// Subject подставляет хранилище при записи.
type Attribute struct {
	Name  string
	Op    Operator
	Value string
}

// Codec переводит канонические токены скорости в атрибуты профиля и обратно.
// Не выполняет I/O; все методы детерминированы.
type Codec struct {
	profile Profile
}

// NewCodec создает кодек для выбранного профиля.
func NewCodec(profile Profile) *Codec {
	return &Codec{profile: profile}
}

// Profile возвращает профиль кодека.
func (c *Codec) Profile() Profile {
	return c.profile
}

var speedTokenRe = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*([KMGT]?)B?P?S?$`)

var unitMultipliers = map[string]float64{
	"":  1000000, // по умолчанию Mbps
	"K": 1000,
	"M": 1000000,
	"G": 1000000000,
	"T": 1000000000000,
}

// SpeedToBps переводит человекочитаемый токен скорости ("50M", "1G") в bps.
// Токен без единицы трактуется как Mbps. Числовые строки вне грамматики
// проходят как литеральные bps. Всё остальное деградирует в 0 — это
// осознанная политика совместимости с уже существующими данными, а не
// упущенная валидация.
func SpeedToBps(speed string) int64 {
	speed = strings.ToUpper(strings.TrimSpace(speed))

	if m := speedTokenRe.FindStringSubmatch(speed); m != nil {
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0
		}
		mult, ok := unitMultipliers[m[2]]
		if !ok {
			mult = unitMultipliers["M"]
		}
		return int64(value * mult)
	}

	if value, err := strconv.ParseFloat(speed, 64); err == nil {
		return int64(value)
	}

	return 0
}

// BpsToSpeed переводит bps обратно в человекочитаемый токен,
// округляя до двух знаков: 1000000 -> "1M", 2500000 -> "2.5M".
func BpsToSpeed(bps int64) string {
	if bps == 0 {
		return "0"
	}

	switch {
	case bps >= 1000000000:
		return formatRate(float64(bps)/1000000000) + "G"
	case bps >= 1000000:
		return formatRate(float64(bps)/1000000) + "M"
	case bps >= 1000:
		return formatRate(float64(bps)/1000) + "K"
	}
	return strconv.FormatInt(bps, 10) + "bps"
}

func formatRate(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// EncodeRate кодирует пару upload/download в reply-атрибуты профиля.
//
// Mikrotik: один атрибут со значением "upload/download", токены не
// преобразуются. Huawei: средние скорости в bps, для групповых записей
// (forGroup) дополнительно пиковые, дублирующие средние. Cisco: пара
// AVPair rate-limit строк, складываемых оператором "+=".
func (c *Codec) EncodeRate(upload, download string, forGroup bool) []Attribute {
	switch c.profile {
	case Huawei:
		uploadBps := SpeedToBps(upload)
		downloadBps := SpeedToBps(download)

		result := []Attribute{
			{Name: attrHuaweiInputAverage, Op: OpSet, Value: strconv.FormatInt(uploadBps, 10)},
			{Name: attrHuaweiOutputAverage, Op: OpSet, Value: strconv.FormatInt(downloadBps, 10)},
		}
		if forGroup {
			result = append(result,
				Attribute{Name: attrHuaweiInputPeak, Op: OpSet, Value: strconv.FormatInt(uploadBps, 10)},
				Attribute{Name: attrHuaweiOutputPeak, Op: OpSet, Value: strconv.FormatInt(downloadBps, 10)},
			)
		}
		return result

	case Cisco:
		return []Attribute{
			{Name: attrCiscoAVPair, Op: OpAdd, Value: ciscoRateLimit("input", SpeedToBps(upload))},
			{Name: attrCiscoAVPair, Op: OpAdd, Value: ciscoRateLimit("output", SpeedToBps(download))},
		}

	default:
		return []Attribute{
			{Name: attrMikrotikRateLimit, Op: OpEqual, Value: upload + "/" + download},
		}
	}
}

// DecodeRate восстанавливает пару upload/download из произвольного набора
// reply-строк. Декодирование толерантно: отсутствующие или непонятные
// строки дают пустые токены, ошибок не бывает.
func (c *Codec) DecodeRate(rows []Attribute) (upload, download string) {
	switch c.profile {
	case Huawei:
		for _, row := range rows {
			switch row.Name {
			case attrHuaweiInputAverage:
				upload = BpsToSpeed(parseBps(row.Value))
			case attrHuaweiOutputAverage:
				download = BpsToSpeed(parseBps(row.Value))
			}
		}
		return upload, download

	case Cisco:
		for _, row := range rows {
			if row.Name != attrCiscoAVPair {
				continue
			}
			direction, bps, ok := parseCiscoRateLimit(row.Value)
			if !ok {
				continue
			}
			switch direction {
			case "input":
				upload = BpsToSpeed(bps)
			case "output":
				download = BpsToSpeed(bps)
			}
		}
		return upload, download

	default:
		for _, row := range rows {
			if row.Name != attrMikrotikRateLimit {
				continue
			}
			parts := strings.SplitN(row.Value, "/", 2)
			upload = parts[0]
			if len(parts) > 1 {
				download = parts[1]
			}
			return upload, download
		}
		return "", ""
	}
}

func parseBps(value string) int64 {
	bps, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return bps
}

var ciscoRateLimitRe = regexp.MustCompile(`rate-limit (input|output) (\d+)`)

// ciscoRateLimit собирает AVPair-значение rate-limit; burst — одна восьмая
// скорости (секунда трафика в байтах), как настраивают вручную на IOS.
func ciscoRateLimit(direction string, bps int64) string {
	burst := bps / 8
	return fmt.Sprintf("lcp:interface-config#1=rate-limit %s %d %d %d conform-action transmit exceed-action drop",
		direction, bps, burst, burst)
}

func parseCiscoRateLimit(value string) (direction string, bps int64, ok bool) {
	m := ciscoRateLimitRe.FindStringSubmatch(value)
	if m == nil {
		return "", 0, false
	}
	bps, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[1], bps, true
}
