// internal/timeutil/kst.go
package timeutil

import "time"

// ------------------------------------------------------------
// KST(UTC+9) 날짜 경계 변환.
//
// upstream API(Atlassian admin)는 from/to 를 epoch 밀리초로 받는다.
// 사용자가 입력하는 것은 달력 날짜(YYYY-MM-DD)이므로,
// KST 기준으로 하루의 시작(00:00:00.000)과 끝(23:59:59.999)을
// 밀리초 타임스탬프로 변환해 조회 구간을 만든다.
// ------------------------------------------------------------

// KST 는 고정 오프셋(UTC+9) 타임존. DST 없음.
var KST = time.FixedZone("KST", 9*60*60)

const dateLayout = "2006-01-02"

// DayStartMS 는 "YYYY-MM-DD" 를 KST 기준 해당 날짜 00:00:00.000 의
// epoch 밀리초로 변환한다.
func DayStartMS(date string) (int64, error) {
	t, err := time.ParseInLocation(dateLayout, date, KST)
	if err != nil {
		return 0, err
	}
	return t.UnixMilli(), nil
}

// DayEndMS 는 "YYYY-MM-DD" 를 KST 기준 해당 날짜 23:59:59.999 의
// epoch 밀리초로 변환한다.
func DayEndMS(date string) (int64, error) {
	t, err := time.ParseInLocation(dateLayout, date, KST)
	if err != nil {
		return 0, err
	}
	// 다음 날 0시에서 1ms 뺀 값 = 23:59:59.999
	return t.AddDate(0, 0, 1).UnixMilli() - 1, nil
}

// DayWindow 는 시작/종료 날짜 쌍을 한 번에 변환한다.
// from == to (단일 날짜 구간)도 그대로 허용된다.
func DayWindow(from, to string) (int64, int64, error) {
	start, err := DayStartMS(from)
	if err != nil {
		return 0, 0, err
	}
	end, err := DayEndMS(to)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
