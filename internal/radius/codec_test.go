package radius

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeedToBps(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  int64
	}{
		{name: "мегабиты", token: "50M", want: 50_000_000},
		{name: "гигабиты", token: "1G", want: 1_000_000_000},
		{name: "килобиты", token: "100K", want: 100_000},
		{name: "терабиты", token: "1T", want: 1_000_000_000_000},
		{name: "граница единиц 1000K == 1M", token: "1000K", want: 1_000_000},
		{name: "суффикс bps", token: "50Mbps", want: 50_000_000},
		{name: "нижний регистр", token: "50m", want: 50_000_000},
		{name: "пробелы вокруг", token: " 50M ", want: 50_000_000},
		{name: "дробное значение", token: "1.5G", want: 1_500_000_000},
		{name: "без единицы по умолчанию Mbps", token: "50", want: 50_000_000},
		{name: "мусор деградирует в ноль", token: "abc", want: 0},
		{name: "пустая строка", token: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SpeedToBps(tt.token))
		})
	}
}

func TestSpeedToBps_UnitBoundary(t *testing.T) {
	// "1000K" и "1M" обязаны давать один и тот же bps
	assert.Equal(t, SpeedToBps("1M"), SpeedToBps("1000K"))
	assert.Equal(t, int64(1_000_000), SpeedToBps("1000K"))
}

func TestBpsToSpeed(t *testing.T) {
	tests := []struct {
		name string
		bps  int64
		want string
	}{
		{name: "ноль", bps: 0, want: "0"},
		{name: "гигабиты", bps: 1_000_000_000, want: "1G"},
		{name: "дробные гигабиты", bps: 1_500_000_000, want: "1.5G"},
		{name: "мегабиты", bps: 50_000_000, want: "50M"},
		{name: "дробные мегабиты", bps: 2_500_000, want: "2.5M"},
		{name: "килобиты", bps: 100_000, want: "100K"},
		{name: "меньше килобита", bps: 500, want: "500bps"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BpsToSpeed(tt.bps))
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	profiles := []Profile{Mikrotik, Huawei, Cisco}
	speeds := []struct{ upload, download string }{
		{"50M", "50M"},
		{"1G", "512M"},
		{"100K", "2M"},
	}

	for _, profile := range profiles {
		for _, s := range speeds {
			t.Run(profile.String()+"_"+s.upload+"_"+s.download, func(t *testing.T) {
				codec := NewCodec(profile)
				rows := codec.EncodeRate(s.upload, s.download, false)
				require.NotEmpty(t, rows)

				upload, download := codec.DecodeRate(rows)
				assert.Equal(t, s.upload, upload)
				assert.Equal(t, s.download, download)
			})
		}
	}
}

func TestCodec_EncodeMikrotik(t *testing.T) {
	codec := NewCodec(Mikrotik)

	rows := codec.EncodeRate("50M", "100M", false)
	require.Len(t, rows, 1)
	assert.Equal(t, "Mikrotik-Rate-Limit", rows[0].Name)
	assert.Equal(t, OpEqual, rows[0].Op)
	assert.Equal(t, "50M/100M", rows[0].Value)

	// forGroup для комбинированного формата ничего не добавляет
	assert.Len(t, codec.EncodeRate("50M", "100M", true), 1)
}

func TestCodec_EncodeHuawei(t *testing.T) {
	codec := NewCodec(Huawei)

	rows := codec.EncodeRate("50M", "100M", false)
	require.Len(t, rows, 2)
	assert.Equal(t, "Huawei-Input-Average-Rate", rows[0].Name)
	assert.Equal(t, "50000000", rows[0].Value)
	assert.Equal(t, OpSet, rows[0].Op)
	assert.Equal(t, "Huawei-Output-Average-Rate", rows[1].Name)
	assert.Equal(t, "100000000", rows[1].Value)

	// для групповой записи добавляются пиковые скорости, равные средним
	rows = codec.EncodeRate("50M", "100M", true)
	require.Len(t, rows, 4)
	assert.Equal(t, "Huawei-Input-Peak-Rate", rows[2].Name)
	assert.Equal(t, "50000000", rows[2].Value)
	assert.Equal(t, "Huawei-Output-Peak-Rate", rows[3].Name)
	assert.Equal(t, "100000000", rows[3].Value)
}

func TestCodec_EncodeCisco(t *testing.T) {
	codec := NewCodec(Cisco)

	rows := codec.EncodeRate("8M", "16M", false)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, "Cisco-AVPair", row.Name)
		assert.Equal(t, OpAdd, row.Op)
	}
	assert.Contains(t, rows[0].Value, "rate-limit input 8000000 1000000 1000000")
	assert.Contains(t, rows[1].Value, "rate-limit output 16000000 2000000 2000000")
}

func TestCodec_DecodeTolerant(t *testing.T) {
	tests := []struct {
		name         string
		profile      Profile
		rows         []Attribute
		wantUpload   string
		wantDownload string
	}{
		{
			name:    "пустой набор строк",
			profile: Mikrotik,
			rows:    nil,
		},
		{
			name:    "mikrotik без второй половины",
			profile: Mikrotik,
			rows: []Attribute{
				{Name: "Mikrotik-Rate-Limit", Op: OpEqual, Value: "50M"},
			},
			wantUpload:   "50M",
			wantDownload: "",
		},
		{
			name:    "чужие атрибуты игнорируются",
			profile: Huawei,
			rows: []Attribute{
				{Name: "Framed-Pool", Op: OpEqual, Value: "pool1"},
				{Name: "Huawei-Output-Average-Rate", Op: OpSet, Value: "1000000"},
			},
			wantUpload:   "",
			wantDownload: "1M",
		},
		{
			name:    "битое числовое значение деградирует в ноль",
			profile: Huawei,
			rows: []Attribute{
				{Name: "Huawei-Input-Average-Rate", Op: OpSet, Value: "garbage"},
			},
			wantUpload:   "0",
			wantDownload: "",
		},
		{
			name:    "cisco с посторонним avpair",
			profile: Cisco,
			rows: []Attribute{
				{Name: "Cisco-AVPair", Op: OpAdd, Value: "ip:addr-pool=pool1"},
				{Name: "Cisco-AVPair", Op: OpAdd, Value: ciscoRateLimit("output", 2_000_000)},
			},
			wantUpload:   "",
			wantDownload: "2M",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec := NewCodec(tt.profile)
			upload, download := codec.DecodeRate(tt.rows)
			assert.Equal(t, tt.wantUpload, upload)
			assert.Equal(t, tt.wantDownload, download)
		})
	}
}

func TestParseProfile(t *testing.T) {
	for _, name := range []string{"mikrotik", "huawei", "cisco"} {
		profile, err := ParseProfile(name)
		require.NoError(t, err)
		assert.Equal(t, name, profile.String())
	}

	_, err := ParseProfile("juniper")
	assert.Error(t, err)
}
