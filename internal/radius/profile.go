// Package radius реализует преобразование между каноническим описанием
// полосы пропускания абонента и vendor-специфичными атрибутами RADIUS.
//
// Профиль оборудования (NAS) — закрытое перечисление, выбирается один раз
// при старте по конфигу. Каждый профиль задаёт имена атрибутов для
// upload/download, формат кодирования (один комбинированный токен или
// отдельные числовые строки) и систему единиц.
package radius

import "fmt"

// Operator оператор атрибута в строках radcheck/radreply.
type Operator string

const (
	// OpSet присваивание check-атрибута (":=").
	OpSet Operator = ":="
	// OpEqual reply-атрибут ("=").
	OpEqual Operator = "="
	// OpAdd аддитивный reply-атрибут ("+=").
	OpAdd Operator = "+="
)

// Profile профиль оборудования NAS.
type Profile int

const (
	// Mikrotik кодирует полосу одним атрибутом Mikrotik-Rate-Limit
	// в виде "upload/download" без преобразования единиц.
	Mikrotik Profile = iota
	// Huawei кодирует полосу отдельными числовыми атрибутами в bps:
	// средние скорости всегда, пиковые — для групповых записей.
	Huawei
	// Cisco кодирует полосу строками Cisco-AVPair в bps.
	Cisco
)

// ParseProfile разбирает имя профиля из конфига.
func ParseProfile(name string) (Profile, error) {
	switch name {
	case "mikrotik":
		return Mikrotik, nil
	case "huawei":
		return Huawei, nil
	case "cisco":
		return Cisco, nil
	default:
		return Mikrotik, fmt.Errorf("unknown nas type: %q", name)
	}
}

func (p Profile) String() string {
	switch p {
	case Huawei:
		return "huawei"
	case Cisco:
		return "cisco"
	default:
		return "mikrotik"
	}
}

// AttrFramedPool стандартный атрибут пула адресов, не зависит от профиля.
const AttrFramedPool = "Framed-Pool"

// Имена атрибутов по профилям.
const (
	attrMikrotikRateLimit = "Mikrotik-Rate-Limit"

	attrHuaweiInputAverage  = "Huawei-Input-Average-Rate"
	attrHuaweiOutputAverage = "Huawei-Output-Average-Rate"
	attrHuaweiInputPeak     = "Huawei-Input-Peak-Rate"
	attrHuaweiOutputPeak    = "Huawei-Output-Peak-Rate"

	attrCiscoAVPair = "Cisco-AVPair"
)

// RateLimitAttributes возвращает имена reply-атрибутов, которыми профиль
// описывает полосу. Используется хранилищем для выборки и движком для
// зачистки при смене тарифа.
func (p Profile) RateLimitAttributes() []string {
	switch p {
	case Huawei:
		return []string{
			attrHuaweiInputAverage,
			attrHuaweiOutputAverage,
			attrHuaweiInputPeak,
			attrHuaweiOutputPeak,
		}
	case Cisco:
		return []string{attrCiscoAVPair}
	default:
		return []string{attrMikrotikRateLimit}
	}
}
