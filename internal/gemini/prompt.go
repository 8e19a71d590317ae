package gemini

// analysisPrompt is the fixed extraction instruction. The response schema and
// the era-conversion rules are part of the service contract; changing the
// wording changes extraction behavior, so treat edits as breaking.
const analysisPrompt = `領収書を解析し、以下のJSON形式で返してください:
[ { "date": "YYYY-MM-DD", "vendor_name": "店舗名", "total_amount": 数値, "category": "カテゴリ", "is_ic_transport": true/false, "is_parking": true/false } ]

【重要：is_ic_transportフラグ】
- 書類に「ICカード交通費」「IC交通費」「ICカード利用明細」などの表記がある場合は true
- 交通系ICカード（Suica、PASMO、ICOCA等）の利用明細の場合は true
- それ以外の一般的な領収書の場合は false
- is_ic_transport が true で複数の乗車区間がある場合は "items" に各区間を出力:
  "items": [ { "date": "YYYY-MM-DD", "vendor_name": "交通機関名", "amount": 数値, "from_station": "乗車駅", "to_station": "降車駅" } ]

【重要：is_parkingフラグ】
- 駐車場・パーキング・コインパーキングの領収書の場合は true
- 駐輪場（自転車）の領収書は false

【重要：日付の変換ルール】
1. 和暦が記載されている場合は必ず西暦に変換してください
2. 令和（R, R.）の変換: 令和1年=2019年、令和7年=2025年、令和8年=2026年
   - 計算式: 西暦 = 令和年 + 2018
3. 平成（H, H.）の変換: 平成31年=2019年（平成は2019年4月30日で終了）
   - 計算式: 西暦 = 平成年 + 1988
4. 年が2桁のみの場合（25, 26等）は2025年、2026年と解釈
5. 「R7」「令7」「令和7」はすべて令和7年=2025年
6. 現在は令和時代（2019年5月1日〜）です。「7年」と書かれていれば令和7年=2025年

【注意】
- 領収書の日付が1990年代になることは通常ありません
- 日付が2020年より前になった場合は、和暦の変換ミスの可能性があります`
